package cmdutils

// Log field keys, so the retry and exchange lines read the same everywhere
const (
	KeyRegion      = "region"
	KeyRoleArn     = "roleArn"
	KeySessionName = "sessionName"
	KeyAttempt     = "attempt"
	KeyDelay       = "delay"
	KeySource      = "source"
	KeyErrorCode   = "errorCode"
	KeyRoleId      = "roleId"
	KeyExpiration  = "expiration"
)
