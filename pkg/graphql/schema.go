// Package graphql exposes buildings and routing over a graphql-go schema.
package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/campusnav/pkg/campus"
	"github.com/dd0wney/campusnav/pkg/routing"
)

// GraphSource returns the graph a query runs against. It is called once per
// resolved root field so a snapshot swap never splits a field.
type GraphSource func() (*campus.Graph, error)

// SchemaConfig wires a schema to the served snapshot
type SchemaConfig struct {
	Source   GraphSource
	Observer routing.Observer
}

// buildingView pairs a building with the graph its entrances are read from
type buildingView struct {
	building *campus.Building
	graph    *campus.Graph
}

var pointType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Point",
	Fields: graphql.Fields{
		"x": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Float),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if pt, ok := p.Source.(routing.Point); ok {
					return pt.X, nil
				}
				return nil, nil
			},
		},
		"y": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Float),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if pt, ok := p.Source.(routing.Point); ok {
					return pt.Y, nil
				}
				return nil, nil
			},
		},
	},
})

var buildingType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Building",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if v, ok := p.Source.(buildingView); ok {
					return v.building.ID, nil
				}
				return nil, nil
			},
		},
		"name": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if v, ok := p.Source.(buildingView); ok {
					return v.building.Name, nil
				}
				return nil, nil
			},
		},
		// Entrances are computed from node membership, not the cached list
		"entrances": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(graphql.String)),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if v, ok := p.Source.(buildingView); ok {
					return v.graph.EntrancesOf(v.building.ID), nil
				}
				return nil, nil
			},
		},
	},
})

var legType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Leg",
	Fields: graphql.Fields{
		"fromBuilding": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if leg, ok := p.Source.(routing.Leg); ok {
					return leg.FromBuilding, nil
				}
				return nil, nil
			},
		},
		"toBuilding": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if leg, ok := p.Source.(routing.Leg); ok {
					return leg.ToBuilding, nil
				}
				return nil, nil
			},
		},
		"timeS": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Float),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if leg, ok := p.Source.(routing.Leg); ok {
					return leg.TimeS, nil
				}
				return nil, nil
			},
		},
		"path": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(graphql.String)),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if leg, ok := p.Source.(routing.Leg); ok {
					return leg.Path, nil
				}
				return nil, nil
			},
		},
		"polyline": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(pointType)),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if leg, ok := p.Source.(routing.Leg); ok {
					return leg.Polyline, nil
				}
				return nil, nil
			},
		},
		"labelPosition": &graphql.Field{
			Type: pointType,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if leg, ok := p.Source.(routing.Leg); ok {
					return leg.LabelPosition, nil
				}
				return nil, nil
			},
		},
	},
})

var itineraryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Itinerary",
	Fields: graphql.Fields{
		"legs": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(legType)),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if it, ok := p.Source.(*routing.Itinerary); ok {
					return it.Legs, nil
				}
				return nil, nil
			},
		},
		"totalTimeS": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Float),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if it, ok := p.Source.(*routing.Itinerary); ok {
					return it.TotalTimeS, nil
				}
				return nil, nil
			},
		},
		"path": &graphql.Field{
			Type: graphql.NewList(graphql.NewNonNull(graphql.String)),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				if it, ok := p.Source.(*routing.Itinerary); ok {
					return it.CombinedPath(), nil
				}
				return nil, nil
			},
		},
	},
})

var statsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "GraphStats",
	Fields: graphql.Fields{
		"nodes":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: statsResolver(func(g *campus.Graph) int { return g.NodeCount() })},
		"edges":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: statsResolver(func(g *campus.Graph) int { return g.EdgeCount() })},
		"buildings": &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: statsResolver(func(g *campus.Graph) int { return g.BuildingCount() })},
	},
})

func statsResolver(count func(*campus.Graph) int) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if g, ok := p.Source.(*campus.Graph); ok {
			return count(g), nil
		}
		return nil, nil
	}
}

// GenerateSchema builds the campus schema:
//
//	buildings: [Building!]!
//	building(id: String!): Building
//	route(buildings: [String!]!, avoidStairs: Boolean, accessibleOnly: Boolean): Itinerary
//	stats: GraphStats
func GenerateSchema(cfg SchemaConfig) (graphql.Schema, error) {
	if cfg.Source == nil {
		return graphql.Schema{}, fmt.Errorf("schema needs a graph source")
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"buildings": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(buildingType))),
				Resolve: createBuildingsResolver(cfg.Source),
			},
			"building": &graphql.Field{
				Type: buildingType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
				},
				Resolve: createBuildingResolver(cfg.Source),
			},
			"route": &graphql.Field{
				Type: itineraryType,
				Args: graphql.FieldConfigArgument{
					"buildings": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String))),
					},
					"avoidStairs": &graphql.ArgumentConfig{
						Type:         graphql.Boolean,
						DefaultValue: false,
					},
					"accessibleOnly": &graphql.ArgumentConfig{
						Type:         graphql.Boolean,
						DefaultValue: false,
					},
				},
				Resolve: createRouteResolver(cfg.Source, cfg.Observer),
			},
			"stats": &graphql.Field{
				Type: statsType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return cfg.Source()
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func createBuildingsResolver(source GraphSource) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		g, err := source()
		if err != nil {
			return nil, err
		}
		buildings := g.Buildings()
		views := make([]buildingView, 0, len(buildings))
		for _, b := range buildings {
			views = append(views, buildingView{building: b, graph: g})
		}
		return views, nil
	}
}

func createBuildingResolver(source GraphSource) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		g, err := source()
		if err != nil {
			return nil, err
		}
		id, _ := p.Args["id"].(string)
		b, ok := g.Building(id)
		if !ok {
			return nil, nil
		}
		return buildingView{building: b, graph: g}, nil
	}
}

func createRouteResolver(source GraphSource, observer routing.Observer) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		g, err := source()
		if err != nil {
			return nil, err
		}

		raw, _ := p.Args["buildings"].([]any)
		codes := make([]string, 0, len(raw))
		for _, v := range raw {
			if code, ok := v.(string); ok {
				codes = append(codes, code)
			}
		}

		prefs := routing.Preferences{}
		prefs.AvoidStairs, _ = p.Args["avoidStairs"].(bool)
		prefs.AccessibleOnly, _ = p.Args["accessibleOnly"].(bool)

		opts := []routing.Option{routing.WithCost(prefs.Cost(routing.WalkingTime))}
		if observer != nil {
			opts = append(opts, routing.WithObserver(observer))
		}
		it, err := routing.NewPlanner(opts...).ComposeRoute(g, codes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", routing.ErrorKind(err), err)
		}
		return it, nil
	}
}
