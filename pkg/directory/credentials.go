package directory

// Credential is presented by a caller to prove an identity. The concrete
// types below are tried in a fixed order by the engine's authenticator chain.
type Credential interface {
	// AuthMethod names the authentication method for audit events.
	AuthMethod() string
}

// PasswordCredential carries a username (or login alias) and its password.
type PasswordCredential struct {
	Username string
	Password string
}

func (PasswordCredential) AuthMethod() string { return "password" }

// APIKeyCredential carries an API key id and its secret.
type APIKeyCredential struct {
	ID     string
	Secret string
}

func (APIKeyCredential) AuthMethod() string { return "apikey" }

// TokenCredential carries a signed bearer token.
type TokenCredential struct {
	Token string
}

func (TokenCredential) AuthMethod() string { return "token" }
