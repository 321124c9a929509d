// credentialexchange
//
// Exchanges a GitHub Actions OIDC token for temporary AWS credentials using
// AssumeRoleWithWebIdentity and resolves the account the credentials belong to.
//
// Every STS call goes through a narrow interface so the *sts.Client can be
// swapped for a stub in tests.
package credentialexchange
