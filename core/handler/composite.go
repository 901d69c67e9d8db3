package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/prism/core/schema"
	"github.com/artpar/prism/ports"
)

// Entity type identifiers touched by the route-building composite.
const (
	typeDeliveryRoute        = "delivery_route"
	typeDeliveryPoint        = "delivery_point"
	typeRouteSegment         = "route_segment"
	typeDeliveryRouteSegment = "delivery_route_segment"
	typeTransportType        = "transport_type"

	airTransportCode = "AIR"
)

// registerComposites installs the domain composite kinds. Composites are
// the one place a single field fans out into multiple interlinked
// records; they sit behind the same inbound interface so the pipeline
// stays unaware of them.
func registerComposites(d *Dispatcher) {
	d.inbound[schema.CompositePrefix+"route"] = inboundCompositeRoute
}

// inboundCompositeRoute builds a delivery route from a label-list of
// airport codes. It creates the route, resolves or creates the two
// endpoints and the segment between them, links the segment to the
// route, and substitutes the route's identifier on the owner.
//
// Auxiliary records created before a failure are NOT compensated; a
// later error leaves them in place.
func inboundCompositeRoute(ctx context.Context, d *Dispatcher, _ Context, f *schema.SchemaField, value any) (string, any, error) {
	items, ok := value.([]any)
	if !ok {
		return f.Name, value, fmt.Errorf("field %s: expected a list of {name, value} items", f.Name)
	}

	routeType, err := d.store.ResolveType(ctx, typeDeliveryRoute)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
	}
	route, err := d.store.Create(ctx, routeType, map[string]any{})
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: create route: %w", f.Name, err)
	}

	var fromPoint, toPoint *ports.Record
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		code := fmt.Sprintf("%v", entry["value"])
		switch entry["name"] {
		case "from_airport_code":
			fromPoint, err = d.getOrCreate(ctx, typeDeliveryPoint, map[string]any{"unic_code": code})
		case "to_airport_code":
			toPoint, err = d.getOrCreate(ctx, typeDeliveryPoint, map[string]any{"unic_code": code})
		}
		if err != nil {
			return f.Name, value, fmt.Errorf("field %s: delivery point %s: %w", f.Name, code, err)
		}
	}
	if fromPoint == nil || toPoint == nil {
		return f.Name, value, fmt.Errorf("field %s: both from_airport_code and to_airport_code are required", f.Name)
	}

	transportType, err := d.store.ResolveType(ctx, typeTransportType)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
	}
	air, err := d.store.Fetch(ctx, transportType, "unic_code", airTransportCode)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: transport type %s: %w", f.Name, airTransportCode, err)
	}

	segment, err := d.getOrCreate(ctx, typeRouteSegment, map[string]any{
		"from_point_id":     fromPoint.ID(),
		"to_point_id":       toPoint.ID(),
		"transport_type_id": air.ID(),
	})
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: route segment: %w", f.Name, err)
	}

	linkType, err := d.store.ResolveType(ctx, typeDeliveryRouteSegment)
	if err != nil {
		return f.Name, value, fmt.Errorf("field %s: %w", f.Name, err)
	}
	if _, err := d.store.Create(ctx, linkType, map[string]any{
		"delivery_route_id": route.ID(),
		"route_segment_id":  segment.ID(),
	}); err != nil {
		return f.Name, value, fmt.Errorf("field %s: link segment: %w", f.Name, err)
	}

	return suffixID(f.Name), route.ID(), nil
}

// getOrCreate fetches the first record matching every attr, creating it
// when none exists.
func (d *Dispatcher) getOrCreate(ctx context.Context, typeIdentifier string, attrs map[string]any) (*ports.Record, error) {
	desc, err := d.store.ResolveType(ctx, typeIdentifier)
	if err != nil {
		return nil, err
	}
	matches, err := d.store.Query(ctx, desc, attrs)
	if err != nil && !errors.Is(err, ports.ErrRecordNotFound) {
		return nil, err
	}
	if len(matches) > 0 {
		return matches[0], nil
	}
	return d.store.Create(ctx, desc, attrs)
}
