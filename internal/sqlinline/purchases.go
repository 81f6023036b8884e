package sqlinline

const QInsertPurchase = `--sql 3f051464-b454-4926-bafa-d6d54c238a21
insert into purchases (payment_intent_id, user_id, tokens, amount_cents, currency, status, created_at)
values ($1::text, $2::uuid, $3::bigint, $4::bigint, $5::text, 'pending', now())
on conflict (payment_intent_id) do nothing;
`

const QSelectPurchase = `--sql ab4acad3-5f71-46ec-a61b-36f498dd05bb
select payment_intent_id, user_id, tokens, amount_cents, currency, status, created_at, credited_at
from purchases
where payment_intent_id = $1::text
limit 1;
`

const QListPurchases = `--sql 346cfa75-9dce-4730-8ba5-be48409cf260
select payment_intent_id, user_id, tokens, amount_cents, currency, status, created_at, credited_at
from purchases
where user_id = $1::uuid
order by created_at desc
limit $2::int;
`

const QMarkPurchaseCredited = `--sql bba6b73b-85f1-4ea1-b557-5a8e6860d26a
update purchases
set status = 'credited', credited_at = now()
where payment_intent_id = $1::text and status = 'pending'
returning user_id, tokens;
`
