package config

import (
	"context"
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/pi-tools/report-forge/pkg/models/domain"
)

// Registry resolves inspector profiles. Profiles hold the report-form
// header fields that never travel with the uploaded inspection document
// (license numbers, sponsor details).
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*domain.InspectorProfile, error)
}

type iniRegistry struct {
	cfg *ini.File
}

// NewRegistry loads an ini-format profile file, one section per inspector.
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &iniRegistry{cfg: cfg}, nil
}

func (r *iniRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range r.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (r *iniRegistry) GetProfile(_ context.Context, name string) (*domain.InspectorProfile, error) {
	section, err := r.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	return &domain.InspectorProfile{
		Name:           section.Key("name").String(),
		LicenseNumber:  section.Key("license_number").String(),
		SponsorName:    section.Key("sponsor_name").String(),
		SponsorLicense: section.Key("sponsor_license").String(),
	}, nil
}

// EmptyRegistry serves blank profiles when no registry file is configured;
// the affected form fields render empty.
type EmptyRegistry struct{}

func (EmptyRegistry) GetProfiles(_ context.Context) ([]string, error) { return nil, nil }

func (EmptyRegistry) GetProfile(_ context.Context, _ string) (*domain.InspectorProfile, error) {
	return &domain.InspectorProfile{}, nil
}
