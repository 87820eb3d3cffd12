package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/utils"
)

const ldapDialTimeout = 5 * time.Second

// LDAPAuthProvider signs in against a directory with a search-then-bind.
// Directory accounts are provisioned elsewhere, so SignUp is unsupported.
type LDAPAuthProvider struct {
	config *config.LDAPConfig
}

func NewLDAPAuthProvider(cfg *config.LDAPConfig) *LDAPAuthProvider {
	return &LDAPAuthProvider{config: cfg}
}

func (p *LDAPAuthProvider) Name() string { return "ldap" }

func (p *LDAPAuthProvider) SignUp(ctx context.Context, email, password string) (*Principal, error) {
	return nil, authError(AuthUnknown, errors.New("registration is managed by the directory"))
}

func (p *LDAPAuthProvider) url() string {
	scheme := "ldap"
	if p.config.UseSSL {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(p.config.Host, fmt.Sprint(p.config.Port)))
}

func (p *LDAPAuthProvider) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	if !p.config.Enabled {
		return nil, authError(AuthUnknown, errors.New("LDAP is not enabled"))
	}

	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: ldapDialTimeout})}
	if p.config.UseSSL {
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{ServerName: p.config.Host}))
	}
	conn, err := ldap.DialURL(p.url(), opts...)
	if err != nil {
		return nil, authError(AuthNetworkUnavailable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	}

	if p.config.BindDN != "" {
		if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
			return nil, authError(AuthUnknown, fmt.Errorf("service bind: %w", err))
		}
	}

	searchRequest := ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
		fmt.Sprintf(p.config.UserFilter, ldap.EscapeFilter(email)),
		[]string{"dn", "mail"},
		nil,
	)
	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, authError(AuthUnknown, fmt.Errorf("search: %w", err))
	}
	if len(result.Entries) != 1 {
		return nil, authError(AuthInvalidCredential, errors.New("invalid email or password"))
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, authError(AuthInvalidCredential, errors.New("invalid email or password"))
	}

	mail := utils.NormalizeEmail(entry.GetAttributeValue("mail"))
	if mail == "" {
		mail = email
	}
	return &Principal{UID: entry.DN, Email: mail}, nil
}
