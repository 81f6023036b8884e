package sqlinline

const QNotifyEvent = `--sql 67f4f936-7456-4ab7-b112-eec645c193b0
select pg_notify($1::text, $2::text);
`
