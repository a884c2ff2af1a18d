package jobxredis

import "github.com/redis/go-redis/v9"

// enqueueScript stores a job unless its id is taken.
// KEYS: job, wait, delayed. ARGV: id, data, status, readyAt, waitScore, maxAttempts.
var enqueueScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
    return 0
end
redis.call('HSET', KEYS[1],
    'data', ARGV[2],
    'status', ARGV[3],
    'attempts', 0,
    'readyAt', ARGV[4],
    'waitScore', ARGV[5],
    'maxAttempts', ARGV[6])
if ARGV[3] == 'delayed' then
    redis.call('ZADD', KEYS[3], ARGV[4], ARGV[1])
else
    redis.call('ZADD', KEYS[2], ARGV[5], ARGV[1])
end
return 1
`)

// claimScript moves the head of wait to active under a lease and a fresh
// lock token.
// KEYS: wait, active. ARGV: leaseDeadline, now, jobKeyPrefix, token.
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGE', KEYS[1], 0, 0)
if #ids == 0 then
    return false
end
local id = ids[1]
redis.call('ZREM', KEYS[1], id)
redis.call('ZADD', KEYS[2], ARGV[1], id)
local key = ARGV[3] .. id
redis.call('HINCRBY', key, 'attempts', 1)
redis.call('HSET', key, 'status', 'active', 'startedAt', ARGV[2], 'token', ARGV[4])
return id
`)

// promoteScript moves due delayed jobs back to wait in their original order.
// KEYS: delayed, wait. ARGV: now, jobKeyPrefix.
var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1000)
for _, id in ipairs(ids) do
    redis.call('ZREM', KEYS[1], id)
    local key = ARGV[2] .. id
    local score = redis.call('HGET', key, 'waitScore')
    if score then
        redis.call('ZADD', KEYS[2], score, id)
        redis.call('HSET', key, 'status', 'waiting')
    end
end
return #ids
`)

// reclaimScript returns jobs with an expired lease to wait, or fails them
// when no attempts are left.
// KEYS: active, wait, failed. ARGV: now, jobKeyPrefix, reason.
var reclaimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1000)
local reclaimed = {}
local failed = {}
for _, id in ipairs(ids) do
    redis.call('ZREM', KEYS[1], id)
    local key = ARGV[2] .. id
    redis.call('HDEL', key, 'token')
    local attempts = tonumber(redis.call('HGET', key, 'attempts') or '0')
    local maxAttempts = tonumber(redis.call('HGET', key, 'maxAttempts') or '1')
    if attempts >= maxAttempts then
        redis.call('HSET', key, 'status', 'failed', 'failedReason', ARGV[3], 'finishedAt', ARGV[1])
        redis.call('ZADD', KEYS[3], ARGV[1], id)
        table.insert(failed, id)
    else
        local score = redis.call('HGET', key, 'waitScore') or ARGV[1]
        redis.call('HSET', key, 'status', 'waiting')
        redis.call('ZADD', KEYS[2], score, id)
        table.insert(reclaimed, id)
    end
end
return {reclaimed, failed}
`)

// lockGuard aborts a script with 0 unless the job is active and still held
// under the caller's token. Every guarded script takes KEYS[1] = job,
// KEYS[2] = active, ARGV[1] = id, ARGV[2] = token.
const lockGuard = `
if not redis.call('ZSCORE', KEYS[2], ARGV[1]) then
    return 0
end
if redis.call('HGET', KEYS[1], 'token') ~= ARGV[2] then
    return 0
end
`

// heartbeatScript extends the lease of a held job.
// KEYS: job, active. ARGV: id, token, leaseDeadline.
var heartbeatScript = redis.NewScript(lockGuard + `
redis.call('ZADD', KEYS[2], 'XX', ARGV[3], ARGV[1])
return 1
`)

// completeScript stores the result and moves a held job to completed.
// KEYS: job, active, completed. ARGV: id, token, now, result, ttlMillis, cutoff.
var completeScript = redis.NewScript(lockGuard + `
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('HSET', KEYS[1], 'status', 'completed', 'result', ARGV[4], 'finishedAt', ARGV[3])
redis.call('HDEL', KEYS[1], 'token')
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
if tonumber(ARGV[5]) > 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[5])
    redis.call('ZREMRANGEBYSCORE', KEYS[3], '-inf', ARGV[6])
end
return 1
`)

// retryScript moves a held job to delayed.
// KEYS: job, active, delayed. ARGV: id, token, readyAt, failedReason, stacktrace.
var retryScript = redis.NewScript(lockGuard + `
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('HSET', KEYS[1], 'status', 'delayed', 'failedReason', ARGV[4], 'stacktrace', ARGV[5], 'readyAt', ARGV[3])
redis.call('HDEL', KEYS[1], 'token')
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return 1
`)

// failScript moves a held job to failed.
// KEYS: job, active, failed. ARGV: id, token, now, failedReason, stacktrace.
var failScript = redis.NewScript(lockGuard + `
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('HSET', KEYS[1], 'status', 'failed', 'failedReason', ARGV[4], 'stacktrace', ARGV[5], 'finishedAt', ARGV[3])
redis.call('HDEL', KEYS[1], 'token')
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return 1
`)
