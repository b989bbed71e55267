package startgg

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider is the set of start.gg queries the record builder depends on.
type Provider interface {
	TournamentInfo(ctx context.Context, slug, eventSlug string) (*TournamentInfo, error)
	EntrantCount(ctx context.Context, eventID string) (*int, error)
	FeaturedPlayers(ctx context.Context, eventSlug string, players []string) ([]string, error)
}

const tournamentInfoQuery = `query getTournamentInfo($slug: String!, $slug_event: String!) {
  tournament(slug: $slug) {
    name
    startAt
    endAt
    timezone
    venueAddress
    city
    addrState
    images {
      url
      width
      height
      type
    }
  }
  event(slug: $slug_event) {
    id
  }
}`

const entrantCountQuery = `query getTournamentEntrants($eventId: ID!) {
  event(id: $eventId) {
    numEntrants
  }
}`

// Image is a banner or profile image candidate.
type Image struct {
	URL    string  `json:"url"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Type   string  `json:"type"`
}

// TournamentInfo is the tournament metadata. Pointer fields are nil when
// start.gg has no value.
type TournamentInfo struct {
	Name         *string `json:"name"`
	StartAt      *int64  `json:"startAt"`
	EndAt        *int64  `json:"endAt"`
	Timezone     *string `json:"timezone"`
	VenueAddress *string `json:"venueAddress"`
	City         *string `json:"city"`
	AddrState    *string `json:"addrState"`
	Images       []Image `json:"images"`
	EventID      string  `json:"-"`
}

// TournamentInfo fetches tournament metadata and the event id.
func (c *Client) TournamentInfo(ctx context.Context, slug, eventSlug string) (*TournamentInfo, error) {
	var data struct {
		Tournament *TournamentInfo `json:"tournament"`
		Event      *struct {
			ID json.Number `json:"id"`
		} `json:"event"`
	}

	vars := map[string]any{"slug": slug, "slug_event": eventSlug}
	if err := c.query(ctx, "tournament_info", tournamentInfoQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Tournament == nil {
		return nil, fmt.Errorf("tournament %q: %w", slug, ErrNotFound)
	}

	info := data.Tournament
	if data.Event != nil {
		info.EventID = data.Event.ID.String()
	}
	return info, nil
}

// EntrantCount returns the number of entrants, or nil when start.gg has none.
func (c *Client) EntrantCount(ctx context.Context, eventID string) (*int, error) {
	var data struct {
		Event *struct {
			NumEntrants *int `json:"numEntrants"`
		} `json:"event"`
	}

	vars := map[string]any{"eventId": eventID}
	if err := c.query(ctx, "entrant_count", entrantCountQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Event == nil {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	return data.Event.NumEntrants, nil
}

// FeaturedPlayers returns the names of event entrants matching any of the
// given players. Matching against the ranked order is left to the caller.
func (c *Client) FeaturedPlayers(ctx context.Context, eventSlug string, players []string) ([]string, error) {
	if len(players) == 0 {
		return nil, nil
	}

	var data struct {
		Event map[string]*struct {
			Nodes []struct {
				Name string `json:"name"`
			} `json:"nodes"`
		} `json:"event"`
	}

	vars := map[string]any{"slug_event": eventSlug}
	if err := c.query(ctx, "featured_players", FeaturedPlayersQuery(players), vars, &data); err != nil {
		return nil, err
	}
	if data.Event == nil {
		return nil, fmt.Errorf("event %q: %w", eventSlug, ErrNotFound)
	}

	var names []string
	for i := range players {
		conn := data.Event[fmt.Sprintf("_%d", i)]
		if conn == nil {
			continue
		}
		for _, node := range conn.Nodes {
			names = append(names, node.Name)
		}
	}
	return names, nil
}

// FeaturedPlayersQuery builds one query with an aliased, name-filtered
// entrants lookup per player.
func FeaturedPlayersQuery(players []string) string {
	var b strings.Builder
	b.WriteString("query getFeaturedPlayers($slug_event: String!) {\n")
	b.WriteString("  event(slug: $slug_event) {\n")
	for i, p := range players {
		name, _ := json.Marshal(p)
		fmt.Fprintf(&b, "    _%d: entrants(query: { page: 0, filter: { name: %s } }) {\n", i, name)
		b.WriteString("      nodes {\n        name\n      }\n    }\n")
	}
	b.WriteString("  }\n}")
	return b.String()
}
