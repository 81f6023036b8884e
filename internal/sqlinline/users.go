package sqlinline

const QInsertUser = `--sql 63ae9475-bbba-4767-ad30-12182b80d458
insert into users (email, password_hash, google_sub, display_name, country, tokens, created_at, updated_at)
values ($1::text, nullif($2::text, ''), nullif($3::text, ''), $4::text, $5::text, $6::bigint, now(), now())
returning id, email, display_name, name, occupation, profile_completed, tokens,
          total_transcriptions, words_transcribed, coalesce(google_sub, ''), country, created_at, updated_at;
`

const QUpsertGoogleUser = `--sql bb44b986-187a-44dc-94e0-4b98df171f14
insert into users (email, google_sub, display_name, country, tokens, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text, $5::bigint, now(), now())
on conflict ((lower(email))) do update set
    google_sub = coalesce(users.google_sub, excluded.google_sub),
    password_hash = case when users.google_sub is null then null else users.password_hash end,
    display_name = case when users.display_name = '' then excluded.display_name else users.display_name end,
    updated_at = now()
returning id, email, display_name, name, occupation, profile_completed, tokens,
          total_transcriptions, words_transcribed, coalesce(google_sub, ''), country, created_at, updated_at;
`

const QSelectUserByID = `--sql 8984a6e1-5780-4a54-8aea-abe0c07947dc
select id, email, display_name, name, occupation, profile_completed, tokens,
       total_transcriptions, words_transcribed, coalesce(google_sub, ''), country, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql 5d07e2f2-9c9d-4d8e-a777-c05c076f8108
select id, email, display_name, name, occupation, profile_completed, tokens,
       total_transcriptions, words_transcribed, coalesce(google_sub, ''), country, created_at, updated_at
from users
where lower(email) = lower($1::text)
limit 1;
`

const QSelectCredentialsByEmail = `--sql 9ddb4661-3146-4c1a-9d12-2cfd96737d7b
select id, email, coalesce(password_hash, '')
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateUserPassword = `--sql 7b866079-7d62-4d00-891f-abcbfc54630b
update users
set password_hash = $2::text, updated_at = now()
where id = $1::uuid;
`

const QUpdateUserProfile = `--sql a4524c84-d946-44f3-b9eb-6461c9658c1f
update users
set display_name = coalesce($2::text, display_name),
    name = coalesce($3::text, name),
    occupation = coalesce($4::text, occupation),
    updated_at = now()
where id = $1::uuid
returning id, email, display_name, name, occupation, profile_completed, tokens,
          total_transcriptions, words_transcribed, coalesce(google_sub, ''), country, created_at, updated_at;
`

const QCompleteUserProfile = `--sql f21d06ec-67fe-4e38-bc9e-211968c9d784
update users
set name = $2::text, occupation = $3::text, profile_completed = true, updated_at = now()
where id = $1::uuid
returning id, email, display_name, name, occupation, profile_completed, tokens,
          total_transcriptions, words_transcribed, coalesce(google_sub, ''), country, created_at, updated_at;
`

const QAddUserTokens = `--sql 00c621e4-a65a-4a1b-a4de-a46dc538b485
update users
set tokens = greatest(tokens + $2::bigint, 0), updated_at = now()
where id = $1::uuid
returning tokens;
`

const QDebitUserTranscription = `--sql 853bb7ec-4d8c-4db9-8da0-6c7221c9b50d
update users
set tokens = greatest(tokens - $2::bigint, 0),
    total_transcriptions = total_transcriptions + 1,
    words_transcribed = words_transcribed + $3::bigint,
    updated_at = now()
where id = $1::uuid
returning tokens;
`

const QSelectUserTokens = `--sql 5ec574a9-af91-4e68-a3f6-22f0d1d0c159
select tokens from users where id = $1::uuid;
`

const QDeleteUser = `--sql fa4e96be-e902-496a-9261-6407f95c61bb
delete from users where id = $1::uuid;
`
