package accredited

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sds/sds/internal/platform/fhir"
)

type Service struct {
	repo AccreditedSystemRepository
}

func NewService(repo AccreditedSystemRepository) *Service {
	return &Service{repo: repo}
}

// SearchDevices looks up accredited systems and maps each to one Device.
func (s *Service) SearchDevices(ctx context.Context, c Criteria) ([]*fhir.Device, error) {
	log := zerolog.Ctx(ctx)
	log.Info().
		Str("org_code", c.OrgCode).
		Str("service_id", c.ServiceID).
		Str("manufacturing_organization", c.ManufacturingOrg).
		Str("party_key", c.PartyKey).
		Msg("looking up accredited system information")

	systems, err := s.repo.Search(ctx, c)
	if err != nil {
		return nil, err
	}
	log.Info().Int("records", len(systems)).Msg("obtained accredited system information")

	devices := make([]*fhir.Device, 0, len(systems))
	for _, a := range systems {
		d, err := a.ToFHIR()
		if err != nil {
			return nil, fmt.Errorf("map accredited system: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}
