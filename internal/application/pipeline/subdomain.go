package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	giturls "github.com/whilp/git-urls"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

const RecordTTL int64 = 300

var dnsLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// DeriveSubdomain names the subdomain of a repository: the path segment
// before the repository name (its owner) under rootDomain.
func DeriveSubdomain(repoURL, rootDomain string) (string, error) {
	if rootDomain == "" {
		return "", fmt.Errorf("%w: missing root_domain", domain.ErrInvalidState)
	}

	u, err := giturls.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse repo url: %w", domain.ErrInvalidState, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return "", fmt.Errorf("%w: repo url %q has no owner segment", domain.ErrInvalidState, repoURL)
	}

	// owners such as "john.smith" span several labels
	label := strings.ToLower(segments[len(segments)-2])
	for _, part := range strings.Split(label, ".") {
		if !dnsLabel.MatchString(part) {
			return "", fmt.Errorf("%w: %q is not a valid dns name", domain.ErrInvalidState, label)
		}
	}

	return label + "." + strings.TrimSuffix(rootDomain, "."), nil
}

// SubdomainProvisioner points the repository's subdomain at the deploy
// host. Re-running it for the same repository updates the same record.
type SubdomainProvisioner struct {
	dns     domain.DNSProvider
	zoneID  string
	hostIP  string
	timeout time.Duration
	log     logger.Logger
}

func NewSubdomainProvisioner(dns domain.DNSProvider, zoneID, hostIP string, timeout time.Duration, log logger.Logger) *SubdomainProvisioner {
	return &SubdomainProvisioner{
		dns:     dns,
		zoneID:  zoneID,
		hostIP:  hostIP,
		timeout: timeout,
		log:     log,
	}
}

func (p *SubdomainProvisioner) Name() string { return StageProvisionSubdomain }

func (p *SubdomainProvisioner) Run(ctx context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	if err := in.Require("repo_url", "root_domain"); err != nil {
		return in, err
	}
	if p.hostIP == "" {
		return in, &domain.ConfigurationMissingError{Key: "DEPLOY_HOST_IP"}
	}

	subdomain, err := DeriveSubdomain(in.RepoURL, in.RootDomain)
	if err != nil {
		return in, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.dns.UpsertARecord(ctx, p.zoneID, subdomain, p.hostIP, RecordTTL); err != nil {
		return in, fmt.Errorf("%w: %s: %w", domain.ErrDNSProvisioningFailed, subdomain, err)
	}

	p.log.Info("subdomain provisioned", "subdomain", subdomain, "ip", p.hostIP, "ttl", RecordTTL)

	out := in
	out.Subdomain = subdomain
	return out, nil
}
