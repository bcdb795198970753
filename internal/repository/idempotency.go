package repository

import (
	"context"
)

// IdempotencyKeyRow mirrors one row of idempotency_keys.
type IdempotencyKeyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	InProgress     bool
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
}

const idempotencyColumns = `idempotency_key, request_hash, method, path, in_progress, response_status, response_body, content_type`

func scanIdempotencyKey(row rowScanner) (IdempotencyKeyRow, error) {
	var r IdempotencyKeyRow
	err := row.Scan(&r.IdempotencyKey, &r.RequestHash, &r.Method, &r.Path,
		&r.InProgress, &r.ResponseStatus, &r.ResponseBody, &r.ContentType)
	return r, err
}

func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (IdempotencyKeyRow, error) {
	row := q.db.QueryRow(ctx, `SELECT `+idempotencyColumns+` FROM idempotency_keys WHERE idempotency_key = $1`, key)
	return scanIdempotencyKey(row)
}

type ReserveIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
}

// ReserveIdempotencyKey claims a key for the in-flight request. The
// ON CONFLICT DO NOTHING makes a losing racer see pgx.ErrNoRows.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, arg ReserveIdempotencyKeyParams) (IdempotencyKeyRow, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, in_progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING `+idempotencyColumns,
		arg.IdempotencyKey, arg.RequestHash, arg.Method, arg.Path)
	return scanIdempotencyKey(row)
}

type FinalizeIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
}

func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, arg FinalizeIdempotencyKeyParams) (IdempotencyKeyRow, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE idempotency_keys
		SET in_progress = FALSE, response_status = $3, response_body = $4, content_type = $5, updated_at = NOW()
		WHERE idempotency_key = $1 AND request_hash = $2
		RETURNING `+idempotencyColumns,
		arg.IdempotencyKey, arg.RequestHash, arg.ResponseStatus, arg.ResponseBody, arg.ContentType)
	return scanIdempotencyKey(row)
}
