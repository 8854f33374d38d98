package gql

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"contact-triage-go/internal/automation"
	"contact-triage-go/internal/classifier"
	"contact-triage-go/internal/model"
	"contact-triage-go/internal/service"
)

// Service is the part of the contact service exposed over GraphQL
type Service interface {
	CreateContact(ctx context.Context, input service.ContactInput) (*service.CreateResult, error)
	GetContact(ctx context.Context, id uint) (*model.Contact, error)
	ListContacts(ctx context.Context, filter model.ContactFilter, req service.PageRequest) (*service.ContactPage, error)
	DeleteContact(ctx context.Context, id uint) error
	GetStats(ctx context.Context) (*service.Stats, error)
	ClassifyMessage(ctx context.Context, message string) (classifier.Result, error)
}

const defaultPageLimit = 50

type classification struct {
	message string
	result  classifier.Result
}

type createPayload struct {
	success    bool
	contact    *model.Contact
	automation *automation.Result
	err        string
}

// NewSchema builds the executable GraphQL schema over svc
func NewSchema(svc Service) (graphql.Schema, error) {
	return newSchema(&resolver{svc: svc, now: time.Now})
}

func newSchema(r *resolver) (graphql.Schema, error) {
	categoryEnum := graphql.NewEnum(graphql.EnumConfig{
		Name:        "Category",
		Description: "Contact classification",
		Values: graphql.EnumValueConfigMap{
			"SALES":   &graphql.EnumValueConfig{Value: model.CategorySales},
			"SUPPORT": &graphql.EnumValueConfig{Value: model.CategorySupport},
			"OTHER":   &graphql.EnumValueConfig{Value: model.CategoryOther},
		},
	})

	contactType := newContactType(categoryEnum, r.now)
	automationType := automationResultType()

	connectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContactConnection",
		Fields: graphql.Fields{
			"nodes": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(contactType))),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					page := p.Source.(*service.ContactPage)
					nodes := make([]*model.Contact, 0, len(page.Nodes))
					for i := range page.Nodes {
						nodes = append(nodes, &page.Nodes[i])
					}
					return nodes, nil
				},
			},
			"totalCount":  pageField(graphql.Int, func(p *service.ContactPage) interface{} { return int(p.TotalCount) }),
			"hasNextPage": pageField(graphql.Boolean, func(p *service.ContactPage) interface{} { return p.HasNextPage }),
			"hasPreviousPage": pageField(graphql.Boolean, func(p *service.ContactPage) interface{} {
				return p.HasPreviousPage
			}),
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StatsSummary",
		Fields: graphql.Fields{
			"totalContacts":     statsField(graphql.Int, func(s *service.Stats) interface{} { return int(s.Total) }),
			"salesCount":        statsField(graphql.Int, countOf(model.CategorySales)),
			"supportCount":      statsField(graphql.Int, countOf(model.CategorySupport)),
			"otherCount":        statsField(graphql.Int, countOf(model.CategoryOther)),
			"salesPercentage":   statsField(graphql.Float, percentageOf(model.CategorySales)),
			"supportPercentage": statsField(graphql.Float, percentageOf(model.CategorySupport)),
			"otherPercentage":   statsField(graphql.Float, percentageOf(model.CategoryOther)),
		},
	})

	classificationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClassificationResult",
		Fields: graphql.Fields{
			"mensaje":    classificationField(graphql.String, func(c *classification) interface{} { return c.message }),
			"category":   classificationField(categoryEnum, func(c *classification) interface{} { return c.result.Category }),
			"confidence": classificationField(graphql.Float, func(c *classification) interface{} { return c.result.Confidence }),
			"matchedKeywords": classificationField(graphql.NewList(graphql.NewNonNull(graphql.String)), func(c *classification) interface{} {
				if c.result.MatchedKeywords == nil {
					return []string{}
				}
				return c.result.MatchedKeywords
			}),
		},
	})

	createResponseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContactCreateResponse",
		Fields: graphql.Fields{
			"success": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) { return p.Source.(*createPayload).success, nil },
			},
			"contact": &graphql.Field{
				Type: contactType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(p.Source.(*createPayload).contact), nil
				},
			},
			"automationResult": &graphql.Field{
				Type: automationType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(p.Source.(*createPayload).automation), nil
				},
			},
			"error": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if e := p.Source.(*createPayload).err; e != "" {
						return e, nil
					}
					return nil, nil
				},
			},
		},
	})

	filterInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ContactFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"categoria":  &graphql.InputObjectFieldConfig{Type: categoryEnum},
			"searchText": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"fechaDesde": &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
			"fechaHasta": &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
		},
	})

	paginationInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PaginationInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"limit":  &graphql.InputObjectFieldConfig{Type: graphql.Int, DefaultValue: defaultPageLimit},
			"offset": &graphql.InputObjectFieldConfig{Type: graphql.Int, DefaultValue: 0},
		},
	})

	contactInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ContactInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"nombre":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"email":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"mensaje": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"contacts": &graphql.Field{
				Type: graphql.NewNonNull(connectionType),
				Args: graphql.FieldConfigArgument{
					"filter":     &graphql.ArgumentConfig{Type: filterInput},
					"pagination": &graphql.ArgumentConfig{Type: paginationInput},
				},
				Resolve: r.contacts,
			},
			"contact": &graphql.Field{
				Type: contactType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.contact,
			},
			"stats": &graphql.Field{
				Type:    graphql.NewNonNull(statsType),
				Resolve: r.stats,
			},
			"classifyMessage": &graphql.Field{
				Type: graphql.NewNonNull(classificationType),
				Args: graphql.FieldConfigArgument{
					"mensaje": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.classifyMessage,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createContact": &graphql.Field{
				Type: graphql.NewNonNull(createResponseType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(contactInput)},
				},
				Resolve: r.createContact,
			},
			"deleteContact": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.deleteContact,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func newContactType(categoryEnum *graphql.Enum, now func() time.Time) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Contact",
		Fields: graphql.Fields{
			"id":             contactField(graphql.NewNonNull(graphql.Int), func(c *model.Contact) interface{} { return int(c.ID) }),
			"nombre":         contactField(graphql.NewNonNull(graphql.String), func(c *model.Contact) interface{} { return c.Name }),
			"email":          contactField(graphql.NewNonNull(graphql.String), func(c *model.Contact) interface{} { return c.Email }),
			"mensaje":        contactField(graphql.NewNonNull(graphql.String), func(c *model.Contact) interface{} { return c.Message }),
			"categoria":      contactField(graphql.NewNonNull(categoryEnum), func(c *model.Contact) interface{} { return c.Category }),
			"fechaCreacion":  contactField(graphql.NewNonNull(graphql.DateTime), func(c *model.Contact) interface{} { return c.CreatedAt }),
			"mensajePreview": contactField(graphql.NewNonNull(graphql.String), func(c *model.Contact) interface{} { return c.MessagePreview() }),
			"diasDesdeCreacion": contactField(graphql.NewNonNull(graphql.Int), func(c *model.Contact) interface{} {
				return c.DaysSinceCreation(now())
			}),
		},
	})
}

func automationResultType() *graphql.Object {
	field := func(t graphql.Output, get func(*automation.Result) interface{}) *graphql.Field {
		return &graphql.Field{
			Type:    t,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) { return get(p.Source.(*automation.Result)), nil },
		}
	}
	optional := func(s string) interface{} {
		if s == "" {
			return nil
		}
		return s
	}
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "AutomationResult",
		Fields: graphql.Fields{
			"action":   field(graphql.NewNonNull(graphql.String), func(r *automation.Result) interface{} { return string(r.Action) }),
			"success":  field(graphql.NewNonNull(graphql.Boolean), func(r *automation.Result) interface{} { return r.Success }),
			"priority": field(graphql.NewNonNull(graphql.String), func(r *automation.Result) interface{} { return string(r.Priority) }),
			"error":    field(graphql.String, func(r *automation.Result) interface{} { return optional(r.Error) }),
			"message":  field(graphql.String, func(r *automation.Result) interface{} { return optional(r.Message) }),
		},
	})
}

func contactField(t graphql.Output, get func(*model.Contact) interface{}) *graphql.Field {
	return &graphql.Field{
		Type:    t,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) { return get(p.Source.(*model.Contact)), nil },
	}
}

func pageField(t graphql.Output, get func(*service.ContactPage) interface{}) *graphql.Field {
	return &graphql.Field{
		Type:    graphql.NewNonNull(t),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) { return get(p.Source.(*service.ContactPage)), nil },
	}
}

func statsField(t graphql.Output, get func(*service.Stats) interface{}) *graphql.Field {
	return &graphql.Field{
		Type:    graphql.NewNonNull(t),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) { return get(p.Source.(*service.Stats)), nil },
	}
}

func classificationField(t graphql.Output, get func(*classification) interface{}) *graphql.Field {
	return &graphql.Field{
		Type:    graphql.NewNonNull(t),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) { return get(p.Source.(*classification)), nil },
	}
}

func countOf(c model.Category) func(*service.Stats) interface{} {
	return func(s *service.Stats) interface{} { return int(s.Categories[c].Count) }
}

func percentageOf(c model.Category) func(*service.Stats) interface{} {
	return func(s *service.Stats) interface{} { return s.Categories[c].Percentage }
}

// nullable turns typed nil pointers into untyped nil so graphql-go emits null
func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return v
}
