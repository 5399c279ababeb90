package store

// Redis key layouts.
const (
	KeyAccount         = "account:%s"          // account id -> account JSON
	KeyAccountUsername = "account:username:%s" // username -> account id
	KeyAccountRefCode  = "account:refcode:%s"  // referral code -> account id
	KeyRequest         = "request:%s"          // request id -> request JSON
	KeyPendingRequests = "requests:pending"    // zset: request id scored by created_at
	KeyAccountRounds   = "account:%s:rounds"   // zset: round JSON scored by settled_at
	KeyRateLimit       = "ratelimit:%s:%s"     // account id + action -> counter
)
