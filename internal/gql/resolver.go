package gql

import (
	"errors"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"contact-triage-go/internal/model"
	"contact-triage-go/internal/service"
)

type resolver struct {
	svc Service
	now func() time.Time
}

func (r *resolver) contacts(p graphql.ResolveParams) (interface{}, error) {
	var filter model.ContactFilter
	if raw, ok := p.Args["filter"].(map[string]interface{}); ok {
		if c, ok := raw["categoria"].(model.Category); ok {
			filter.Category = &c
		}
		if s, ok := raw["searchText"].(string); ok {
			filter.Search = s
		}
		filter.CreatedFrom = timeArg(raw["fechaDesde"])
		filter.CreatedTo = timeArg(raw["fechaHasta"])
	}

	req := service.PageRequest{Limit: defaultPageLimit}
	if raw, ok := p.Args["pagination"].(map[string]interface{}); ok {
		if v, ok := raw["limit"].(int); ok {
			req.Limit = v
		}
		if v, ok := raw["offset"].(int); ok {
			req.Offset = v
		}
	}

	return r.svc.ListContacts(p.Context, filter, req)
}

func timeArg(v interface{}) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	}
	return nil
}

func (r *resolver) contact(p graphql.ResolveParams) (interface{}, error) {
	id, ok := idArg(p)
	if !ok {
		return nil, nil
	}
	c, err := r.svc.GetContact(p.Context, id)
	if errors.Is(err, service.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *resolver) stats(p graphql.ResolveParams) (interface{}, error) {
	return r.svc.GetStats(p.Context)
}

func (r *resolver) classifyMessage(p graphql.ResolveParams) (interface{}, error) {
	message, _ := p.Args["mensaje"].(string)
	result, err := r.svc.ClassifyMessage(p.Context, message)
	if err != nil {
		return nil, err
	}
	return &classification{message: message, result: result}, nil
}

func (r *resolver) createContact(p graphql.ResolveParams) (interface{}, error) {
	raw, _ := p.Args["input"].(map[string]interface{})
	input := service.ContactInput{}
	input.Name, _ = raw["nombre"].(string)
	input.Email, _ = raw["email"].(string)
	input.Message, _ = raw["mensaje"].(string)

	result, err := r.svc.CreateContact(p.Context, input)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return &createPayload{err: verr.Error()}, nil
	}
	if err != nil {
		logrus.WithError(err).Error("GraphQL createContact failed")
		return &createPayload{err: "failed to create contact"}, nil
	}

	dispatched := result.Automation
	return &createPayload{success: true, contact: result.Contact, automation: &dispatched}, nil
}

func (r *resolver) deleteContact(p graphql.ResolveParams) (interface{}, error) {
	id, ok := idArg(p)
	if !ok {
		return false, nil
	}
	err := r.svc.DeleteContact(p.Context, id)
	if errors.Is(err, service.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func idArg(p graphql.ResolveParams) (uint, bool) {
	id, ok := p.Args["id"].(int)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
