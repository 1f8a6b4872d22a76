package core

import "context"

// Adapter is the polymorphic capability contract every resource-specific
// adapter implements (spec §4.2). Adapters are peer implementations of this
// contract; they share the common bookkeeping of the embedded *baseAdapter
// helper, but there is no inheritance chain between adapters, matching the
// teacher's networkAdapter/securityAdapter/authorityAdapter "peer interface"
// idiom in consensus.go.
type Adapter interface {
	// AssetKind reports which resource kind this adapter manages.
	AssetKind() AssetKind

	// ValidateConsensusProof runs the composite four-proof validation for
	// this adapter's kind-specific thresholds (spec §4.3.a).
	ValidateConsensusProof(ctx context.Context, proof ConsensusProof, selfID string) error

	// AllocateAsset reserves physical capacity and returns the sole handle
	// to it. On any partial-allocation failure, every reservation made
	// during this call is rolled back before the error is returned (spec
	// §4.2).
	AllocateAsset(ctx context.Context, req AllocationConfig) (*AssetAllocation, error)

	// DeallocateAsset releases a previously allocated asset.
	DeallocateAsset(ctx context.Context, id AssetId) error

	// GetAssetStatus returns the current status of an allocated asset.
	GetAssetStatus(ctx context.Context, id AssetId) (AssetStatus, error)

	// ConfigurePrivacyLevel updates the privacy level gating remote access.
	ConfigurePrivacyLevel(ctx context.Context, id AssetId, level PrivacyLevel) error

	// AssignProxyAddress allocates a virtual address for remote access to
	// the asset.
	AssignProxyAddress(ctx context.Context, id AssetId) (ProxyAddress, error)

	// ResolveProxyAddress reverses AssignProxyAddress.
	ResolveProxyAddress(ctx context.Context, addr ProxyAddress) (AssetId, error)

	// GetResourceUsage reports current consumption for an allocated asset.
	GetResourceUsage(ctx context.Context, id AssetId) (ResourceUsage, error)

	// SetResourceLimits updates the configured ceiling for an asset.
	SetResourceLimits(ctx context.Context, id AssetId, limits ResourceLimits) error

	// HealthCheck reports the adapter's current health.
	HealthCheck(ctx context.Context) AdapterHealth

	// Capabilities describes what this adapter supports.
	Capabilities() AdapterCapabilities
}
