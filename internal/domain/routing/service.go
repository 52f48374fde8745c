package routing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sds/sds/internal/platform/fhir"
	"github.com/sds/sds/internal/platform/metrics"
)

type Service struct {
	repo        MessageHandlingServiceRepository
	coreODSCode string
	metrics     *metrics.Metrics
}

// NewService builds the routing service. coreODSCode is the organisation
// holding the intermediary records; m may be nil.
func NewService(repo MessageHandlingServiceRepository, coreODSCode string, m *metrics.Metrics) *Service {
	return &Service{repo: repo, coreODSCode: coreODSCode, metrics: m}
}

// forwardAddressCache memoises intermediary addresses for one request.
type forwardAddressCache struct {
	reliable string
	express  string
}

func (c *forwardAddressCache) slot(kind ForwardKind) *string {
	switch kind {
	case ForwardReliable:
		return &c.reliable
	case ForwardExpress:
		return &c.express
	}
	return nil
}

// SearchEndpoints looks up messaging handling services, substitutes the
// intermediary address on forwarded interactions and maps every record to
// Endpoints.
func (s *Service) SearchEndpoints(ctx context.Context, c Criteria) ([]*fhir.Endpoint, error) {
	log := zerolog.Ctx(ctx)
	log.Info().
		Str("org_code", c.OrgCode).
		Str("service_id", c.ServiceID).
		Str("party_key", c.PartyKey).
		Msg("looking up routing and reliability information")

	services, err := s.repo.Find(ctx, c)
	if err != nil {
		return nil, err
	}
	log.Info().Int("records", len(services)).Msg("obtained routing and reliability information")

	if err := s.resolveForwardAddresses(ctx, services, &forwardAddressCache{}); err != nil {
		return nil, err
	}

	var endpoints []*fhir.Endpoint
	for _, m := range services {
		eps, err := m.ToFHIR()
		if err != nil {
			return nil, fmt.Errorf("map messaging handling service: %w", err)
		}
		endpoints = append(endpoints, eps...)
	}
	return endpoints, nil
}

// resolveForwardAddresses replaces the addresses of forwarded records with
// the single address of their intermediary. Each intermediary is looked up
// at most once per cache.
func (s *Service) resolveForwardAddresses(ctx context.Context, services []*MessageHandlingService, cache *forwardAddressCache) error {
	for _, m := range services {
		kind, err := ClassifyForward(m.ServiceInteraction)
		if err != nil {
			return err
		}
		slot := cache.slot(kind)
		if slot == nil {
			continue
		}
		if *slot == "" {
			addr, err := s.intermediaryAddress(ctx, kind)
			if err != nil {
				return err
			}
			*slot = addr
		}
		m.Addresses = []string{*slot}
	}
	return nil
}

func (s *Service) intermediaryAddress(ctx context.Context, kind ForwardKind) (string, error) {
	log := zerolog.Ctx(ctx)
	log.Info().
		Str("org_code", s.coreODSCode).
		Str("service_id", kind.Interaction()).
		Msg("looking up forward reliable/express routing and reliability information")
	s.metrics.IncrementForwardLookup(kind.String())

	found, err := s.repo.FindStrict(ctx, Criteria{OrgCode: s.coreODSCode, ServiceID: kind.Interaction()})
	if err != nil {
		return "", err
	}
	log.Info().Int("records", len(found)).Msg("obtained forward reliable/express routing and reliability information")

	if len(found) != 1 {
		return "", fmt.Errorf("Expected 1 result for forward reliable/express routing and reliability but got %d", len(found))
	}
	if n := len(found[0].Addresses); n != 1 {
		return "", fmt.Errorf("Expected 1 address for forward reliable/express routing and reliability but got %d", n)
	}
	return found[0].Addresses[0], nil
}
