package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

func TestDeriveSubdomain(t *testing.T) {
	tests := []struct {
		name    string
		repoURL string
		root    string
		want    string
		wantErr bool
	}{
		{name: "https", repoURL: "https://github.com/dave/my-app.git", root: "plugfolio.io", want: "dave.plugfolio.io"},
		{name: "no suffix", repoURL: "https://github.com/dave/my-app", root: "plugfolio.io", want: "dave.plugfolio.io"},
		{name: "scp style", repoURL: "git@github.com:acme-co/site.git", root: "plugfolio.io", want: "acme-co.plugfolio.io"},
		{name: "ssh scheme", repoURL: "ssh://git@github.com/acme/site.git", root: "plugfolio.io", want: "acme.plugfolio.io"},
		{name: "uppercase owner", repoURL: "https://github.com/Dave/my-app.git", root: "plugfolio.io", want: "dave.plugfolio.io"},
		{name: "nested group", repoURL: "https://gitlab.com/org/team/app.git", root: "plugfolio.io", want: "team.plugfolio.io"},
		{name: "trailing dot root", repoURL: "https://github.com/dave/my-app.git", root: "plugfolio.io.", want: "dave.plugfolio.io"},
		{name: "dotted owner", repoURL: "https://gitlab.com/my.org/my-app.git", root: "plugfolio.io", want: "my.org.plugfolio.io"},
		{name: "empty owner label", repoURL: "https://gitlab.com/my..org/my-app.git", root: "plugfolio.io", wantErr: true},
		{name: "no owner", repoURL: "https://github.com/my-app.git", root: "plugfolio.io", wantErr: true},
		{name: "bad label", repoURL: "https://github.com/da_ve/my-app.git", root: "plugfolio.io", wantErr: true},
		{name: "no root", repoURL: "https://github.com/dave/my-app.git", root: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveSubdomain(tt.repoURL, tt.root)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveSubdomain_Deterministic(t *testing.T) {
	first, err := DeriveSubdomain("https://github.com/dave/my-app.git", "plugfolio.io")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := DeriveSubdomain("https://github.com/dave/my-app.git", "plugfolio.io")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func provisionInput() domain.DeploymentState {
	in := domain.NewDeploymentState()
	in.RepoURL = "https://github.com/dave/my-app.git"
	in.RootDomain = "plugfolio.io"
	return in
}

func TestSubdomainProvisioner_UpsertIsIdempotent(t *testing.T) {
	dns := newFakeDNS()
	p := NewSubdomainProvisioner(dns, "Z1", "203.0.113.10", defaultTestTimeout, logger.Nop())

	for i := 0; i < 2; i++ {
		out, err := p.Run(context.Background(), provisionInput())
		require.NoError(t, err)
		assert.Equal(t, "dave.plugfolio.io", out.Subdomain)
	}

	assert.Equal(t, 2, dns.calls)
	require.Len(t, dns.records, 1)
	assert.Equal(t, dnsRecord{ip: "203.0.113.10", ttl: 300}, dns.records["Z1/dave.plugfolio.io"])
}

func TestSubdomainProvisioner_UpsertFailure(t *testing.T) {
	dns := newFakeDNS()
	dns.err = errBoom
	p := NewSubdomainProvisioner(dns, "Z1", "203.0.113.10", defaultTestTimeout, logger.Nop())

	_, err := p.Run(context.Background(), provisionInput())
	assert.ErrorIs(t, err, domain.ErrDNSProvisioningFailed)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "DnsProvisioningFailed", domain.ErrorKind(err))
}

func TestSubdomainProvisioner_MissingHostIP(t *testing.T) {
	dns := newFakeDNS()
	p := NewSubdomainProvisioner(dns, "Z1", "", defaultTestTimeout, logger.Nop())

	_, err := p.Run(context.Background(), provisionInput())
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.Zero(t, dns.calls)
}

func TestSubdomainProvisioner_RequiresRootDomain(t *testing.T) {
	dns := newFakeDNS()
	p := NewSubdomainProvisioner(dns, "Z1", "203.0.113.10", defaultTestTimeout, logger.Nop())

	in := provisionInput()
	in.RootDomain = ""

	_, err := p.Run(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Zero(t, dns.calls)
}
