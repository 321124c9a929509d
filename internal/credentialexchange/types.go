package credentialexchange

import (
	"fmt"
	"time"
)

// ExchangeRequest is everything needed for a single AssumeRoleWithWebIdentity call
type ExchangeRequest struct {
	Region          string
	RoleArn         string
	SessionName     string
	DurationSeconds int32
	IdentityToken   string
}

// AWSCredentials are the temporary credentials returned by STS.
// They only live for the current process and are never written out.
type AWSCredentials struct {
	AWSAccessKey    string    `json:"-"`
	AWSSecretKey    string    `json:"-"`
	AWSSessionToken string    `json:"-"`
	AssumedRoleId   string    `json:"AssumedRoleId"`
	PrincipalARN    string    `json:"Arn"`
	Expires         time.Time `json:"Expiration"`
}

// String keeps secret values out of logs and error messages
func (c AWSCredentials) String() string {
	return fmt.Sprintf("AWSCredentials{AssumedRoleId: %s, Arn: %s, Expiration: %s}", c.AssumedRoleId, c.PrincipalARN, c.Expires.Format(time.RFC3339))
}
