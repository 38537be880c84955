package retention

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/filevault/pkg/pricing"
)

// Tier names a subscription level.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Unlimited disables the count-based pass.
const Unlimited = -1

// Policy is the retention rule set of one tier.
type Policy struct {
	// AllowedStorageClasses is advisory; cleanup does not enforce it.
	AllowedStorageClasses []pricing.StorageClass `yaml:"allowed_storage_classes" json:"allowed_storage_classes"`
	// MaxVersions caps the versions kept per file. Unlimited (-1) disables the cap.
	MaxVersions int `yaml:"max_versions" json:"max_versions"`
	// AutoDeleteAfterDays drops inactive versions older than this. Zero or
	// negative disables the age pass.
	AutoDeleteAfterDays int `yaml:"auto_delete_after_days" json:"auto_delete_after_days"`
}

// Allows reports whether class is listed for the tier. An empty list allows all.
func (p Policy) Allows(class pricing.StorageClass) bool {
	if len(p.AllowedStorageClasses) == 0 {
		return true
	}
	for _, c := range p.AllowedStorageClasses {
		if c == class {
			return true
		}
	}
	return false
}

// Policies maps tiers to policies and tenants to tiers.
type Policies struct {
	Tiers       map[Tier]Policy `yaml:"tiers"`
	Tenants     map[string]Tier `yaml:"tenants"`
	DefaultTier Tier            `yaml:"default_tier"`
}

// DefaultPolicies returns the built-in free, pro and enterprise tiers.
func DefaultPolicies() *Policies {
	return &Policies{
		DefaultTier: TierFree,
		Tiers: map[Tier]Policy{
			TierFree: {
				MaxVersions:           5,
				AutoDeleteAfterDays:   30,
				AllowedStorageClasses: []pricing.StorageClass{pricing.ClassStandard},
			},
			TierPro: {
				MaxVersions:         25,
				AutoDeleteAfterDays: 90,
				AllowedStorageClasses: []pricing.StorageClass{
					pricing.ClassStandard,
					pricing.ClassStandardIA,
					pricing.ClassGlacierIR,
				},
			},
			TierEnterprise: {
				MaxVersions:           Unlimited,
				AutoDeleteAfterDays:   365,
				AllowedStorageClasses: pricing.Classes(),
			},
		},
		Tenants: map[string]Tier{},
	}
}

// LoadPolicies reads and validates a YAML policy file.
func LoadPolicies(path string) (*Policies, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrLoadPolicies, err)
	}
	return ParsePolicies(data)
}

// ParsePolicies decodes and validates YAML policies.
func ParsePolicies(data []byte) (*Policies, error) {
	var p Policies
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Join(ErrLoadPolicies, err)
	}
	if p.Tenants == nil {
		p.Tenants = map[string]Tier{}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every referenced tier exists and classes are known.
func (p *Policies) Validate() error {
	if len(p.Tiers) == 0 {
		return errors.Join(ErrInvalidPolicies, errors.New("no tiers defined"))
	}
	if _, ok := p.Tiers[p.DefaultTier]; !ok {
		return errors.Join(ErrInvalidPolicies, fmt.Errorf("default tier %q: %w", p.DefaultTier, ErrUnknownTier))
	}
	for name, pol := range p.Tiers {
		if pol.MaxVersions < Unlimited {
			return errors.Join(ErrInvalidPolicies, fmt.Errorf("tier %q: max_versions must be >= -1", name))
		}
		for _, c := range pol.AllowedStorageClasses {
			if !c.Valid() {
				return errors.Join(ErrInvalidPolicies, fmt.Errorf("tier %q: %w: %s", name, pricing.ErrInvalidStorageClass, c))
			}
		}
	}
	for tenant, tier := range p.Tenants {
		if _, ok := p.Tiers[tier]; !ok {
			return errors.Join(ErrInvalidPolicies, fmt.Errorf("tenant %q: tier %q: %w", tenant, tier, ErrUnknownTier))
		}
	}
	return nil
}

// Policy returns the policy of a tier.
func (p *Policies) Policy(tier Tier) (Policy, error) {
	pol, ok := p.Tiers[tier]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	return pol, nil
}

// Resolve returns the tier assigned to a tenant, or the default tier.
func (p *Policies) Resolve(tenant string) Tier {
	if tier, ok := p.Tenants[tenant]; ok {
		return tier
	}
	return p.DefaultTier
}
