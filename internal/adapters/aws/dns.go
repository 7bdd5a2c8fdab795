package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/route53/route53iface"
)

type DNSProvider struct {
	svc route53iface.Route53API
}

func NewDNSProvider(svc route53iface.Route53API) *DNSProvider {
	return &DNSProvider{svc: svc}
}

// UpsertARecord creates the record or replaces the existing one of the
// same name, so repeated calls leave a single record.
func (p *DNSProvider) UpsertARecord(ctx context.Context, zone, name, ip string, ttl int64) error {
	_, err := p.svc.ChangeResourceRecordSetsWithContext(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zone),
		ChangeBatch: &route53.ChangeBatch{
			Changes: []*route53.Change{
				{
					Action: aws.String(route53.ChangeActionUpsert),
					ResourceRecordSet: &route53.ResourceRecordSet{
						Name: aws.String(name),
						Type: aws.String(route53.RRTypeA),
						TTL:  aws.Int64(ttl),
						ResourceRecords: []*route53.ResourceRecord{
							{Value: aws.String(ip)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("route53 upsert %s: %w", name, err)
	}
	return nil
}
