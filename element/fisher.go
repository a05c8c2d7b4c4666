package element

// ArtifactKind classifies the artifacts a Fisher can look up.
type ArtifactKind int

// Artifact kinds, in fishing-filter order.
const (
	KindProfile ArtifactKind = iota
	KindExtension
	KindResource
	KindType
	KindLogicalModel
	KindValueSet
	KindCodeSystem
	KindInstance
)

// String returns the human-readable name of the kind.
func (k ArtifactKind) String() string {
	switch k {
	case KindProfile:
		return "Profile"
	case KindExtension:
		return "Extension"
	case KindResource:
		return "Resource"
	case KindType:
		return "Type"
	case KindLogicalModel:
		return "Logical"
	case KindValueSet:
		return "ValueSet"
	case KindCodeSystem:
		return "CodeSystem"
	case KindInstance:
		return "Instance"
	default:
		return "Unknown"
	}
}

// Metadata is the lightweight record a Fisher returns when the caller only
// needs identity and lineage, not a full element tree.
type Metadata struct {
	ID           string
	Name         string
	URL          string
	Version      string
	Kind         ArtifactKind
	Abstract     bool
	Parent       string // canonical URL or name of the base definition
	ResourceType string
}

// Fisher is the resolver capability the element tree and the rule engine
// consume. Implementations look an item up by name, id, or canonical URL
// (optionally suffixed with |version), filtered by artifact kind. An empty
// kind filter matches every kind.
//
// The interface is defined here, on the consumer side; concrete
// implementations live in the fisher package.
type Fisher interface {
	// FishForStructureDefinition resolves item to a full element tree.
	FishForStructureDefinition(item string, kinds ...ArtifactKind) (*StructureDefinition, error)

	// FishForMetadata resolves item to its identity metadata only.
	FishForMetadata(item string, kinds ...ArtifactKind) (*Metadata, error)
}
