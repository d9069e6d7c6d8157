package memdb

import (
	"time"

	"service-marketplace-api/internal/entity"
)

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}

	return append(make([]string, 0, len(s)), s...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t

	return &c
}

func cloneRequest(r entity.Request) entity.Request {
	r.Files = cloneStrings(r.Files)
	if r.AcceptedQuote != nil {
		aq := *r.AcceptedQuote
		r.AcceptedQuote = &aq
	}
	if r.Rating != nil {
		rating := *r.Rating
		r.Rating = &rating
	}
	if r.Location.Lat != nil {
		lat := *r.Location.Lat
		r.Location.Lat = &lat
	}
	if r.Location.Lng != nil {
		lng := *r.Location.Lng
		r.Location.Lng = &lng
	}
	r.RatedAt = cloneTime(r.RatedAt)
	r.CompletedAt = cloneTime(r.CompletedAt)
	r.CancelledAt = cloneTime(r.CancelledAt)

	return r
}

func cloneQuote(q entity.Quote) entity.Quote {
	q.Attachments = cloneStrings(q.Attachments)

	return q
}

func cloneProject(p entity.Project) entity.Project {
	if p.Photos != nil {
		p.Photos = append(make(entity.Photos, 0, len(p.Photos)), p.Photos...)
	}
	if p.Comments != nil {
		p.Comments = append(make(entity.Comments, 0, len(p.Comments)), p.Comments...)
	}
	p.CompletedAt = cloneTime(p.CompletedAt)

	return p
}

func cloneInvoice(i entity.Invoice) entity.Invoice {
	i.PaidAt = cloneTime(i.PaidAt)

	return i
}

func cloneNotification(n entity.Notification) entity.Notification {
	if n.Data != nil {
		data := make(entity.StringMap, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	n.ReadAt = cloneTime(n.ReadAt)

	return n
}

func cloneUser(u entity.User) entity.User {
	u.Services = cloneStrings(u.Services)
	u.PushTokens = cloneStrings(u.PushTokens)

	return u
}
