package httpx

type ctxKey string

// CtxKeyUserID carries the authenticated user's id. The auth middleware sets
// it and the per-user rate limiter reads it.
const CtxKeyUserID ctxKey = "user_id"
