package sqlinline

const QInsertTranscription = `--sql 4a253dde-d173-41f9-a343-1adc406568a9
insert into transcriptions (user_id, transcript, preview_text, file_name, storage_key, media_type, media_bytes, media_checksum, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::bigint, $8::text, now())
returning id, created_at;
`

const QListTranscriptions = `--sql 263c0452-6c3c-422b-ac77-f3edc7c18022
select id, user_id, transcript, preview_text, file_name, storage_key, media_type, media_bytes, media_checksum, created_at
from transcriptions
where user_id = $1::uuid
order by created_at desc
limit $2::int offset $3::int;
`

const QSelectTranscription = `--sql 2b957d6e-b6c1-4a1f-9d64-3ea12143069e
select id, user_id, transcript, preview_text, file_name, storage_key, media_type, media_bytes, media_checksum, created_at
from transcriptions
where id = $1::uuid and user_id = $2::uuid
limit 1;
`

const QDeleteTranscription = `--sql 3ed0b20b-b102-45f8-aef4-8d730f155d68
delete from transcriptions
where id = $1::uuid and user_id = $2::uuid;
`
