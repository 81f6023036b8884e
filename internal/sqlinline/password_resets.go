package sqlinline

const QDeletePasswordResetsForUser = `--sql 05c7944e-0c0b-482e-835d-341d4bbbe6fd
delete from password_resets where user_id = $1::uuid;
`

const QInsertPasswordReset = `--sql 095d305a-0f81-4540-b11b-ddd451015d06
insert into password_resets (token_hash, user_id, expires_at, created_at)
values ($1::text, $2::uuid, now() + make_interval(secs => $3::int), now());
`

const QConsumePasswordReset = `--sql 72a6e911-03ea-4c44-83e1-f209bd793690
delete from password_resets
where token_hash = $1::text
returning user_id, expires_at > now();
`
