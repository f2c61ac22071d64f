package model

import "fmt"

// EntityType is the real-world kind of entity a dump page describes.
type EntityType string

// Supported entity types.
const (
	// EntityArtist is a musician, singer or band.
	EntityArtist EntityType = "artist"

	// EntityVenue is a concert hall, arena, stadium or similar building.
	EntityVenue EntityType = "venue"

	// EntityCity is a city, town or other populated place.
	EntityCity EntityType = "city"

	// EntityCountry is a sovereign state.
	EntityCountry EntityType = "country"

	// EntityUnknown marks a page whose type could not be determined.
	EntityUnknown EntityType = "unknown"
)

// MentionOrder is the fixed order in which mention sets are consulted when
// collecting the types requested for a page title.
var MentionOrder = []EntityType{EntityCountry, EntityCity, EntityArtist, EntityVenue}

// String returns the type name.
func (t EntityType) String() string {
	return string(t)
}

// Valid reports whether t is one of the four resolvable entity types.
// EntityUnknown is not valid for resolution.
func (t EntityType) Valid() bool {
	switch t {
	case EntityArtist, EntityVenue, EntityCity, EntityCountry:
		return true
	default:
		return false
	}
}

// ParseEntityType converts a name such as "artist" into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return EntityUnknown, fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}
