package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	SessionKeyPrefix   = "s:"
	ChallengeKeyPrefix = "c:"

	// RiskWindow is the trailing window consulted by the frequency and
	// challenge-reuse features. A record aged exactly RiskWindow is excluded.
	RiskWindow = 30 * time.Minute

	FrequencyHighCount   = 10 // attempts within RiskWindow for tier 2
	FrequencyMediumCount = 4  // attempts within RiskWindow for tier 1
	ChallengeHighCount   = 3  // identical challenges within RiskWindow for tier 2
	ChallengeMediumCount = 2  // identical challenges within RiskWindow for tier 1

	PolicyStateCount  = 72 // 3 * 2 * 2 * 2 * 3
	PolicyActionCount = 3

	StepUpOTPDigits     = 6
	StepUpOTPExpiration = 3 * time.Minute
	// StepUpChallengeRetention is how long an issued challenge stays in the
	// store. It must exceed StepUpOTPExpiration: a challenge past its logical
	// expiry still has to be found so verification reports otp_expired rather
	// than session_expired.
	StepUpChallengeRetention = 15 * time.Minute

	SessionGrantTokenMaxAge = 1 * time.Hour

	// AuditWriteTimeout bounds the best-effort audit append so a slow database
	// cannot stall the response.
	AuditWriteTimeout = 5 * time.Second

	HealthCheckServerAddr = ":3001"
)
