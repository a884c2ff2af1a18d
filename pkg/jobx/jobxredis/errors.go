package jobxredis

import "github.com/Abraxas-365/rewardwallet/pkg/errx"

var redisErrors = errx.NewRegistry("JOBX_REDIS")

var (
	ErrEnqueue   = redisErrors.Register("ENQUEUE", errx.TypeExternal, 500, "Redis enqueue failed")
	ErrClaim     = redisErrors.Register("CLAIM", errx.TypeExternal, 500, "Redis claim failed")
	ErrGetJob    = redisErrors.Register("GET_JOB", errx.TypeExternal, 500, "Redis get job failed")
	ErrHeartbeat = redisErrors.Register("HEARTBEAT", errx.TypeExternal, 500, "Redis lease extension failed")
	ErrComplete  = redisErrors.Register("COMPLETE", errx.TypeExternal, 500, "Redis complete failed")
	ErrFail      = redisErrors.Register("FAIL", errx.TypeExternal, 500, "Redis fail failed")
	ErrRetry     = redisErrors.Register("RETRY", errx.TypeExternal, 500, "Redis retry failed")
	ErrPromote   = redisErrors.Register("PROMOTE", errx.TypeExternal, 500, "Redis promote failed")
	ErrReclaim   = redisErrors.Register("RECLAIM", errx.TypeExternal, 500, "Redis stalled reclaim failed")
	ErrPublish   = redisErrors.Register("PUBLISH", errx.TypeExternal, 500, "Redis event publish failed")
	ErrSubscribe = redisErrors.Register("SUBSCRIBE", errx.TypeExternal, 500, "Redis event subscribe failed")
	ErrCounts    = redisErrors.Register("COUNTS", errx.TypeExternal, 500, "Redis counts failed")
	ErrMarshal   = redisErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to marshal job data")
	ErrUnmarshal = redisErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to unmarshal job data")
)
