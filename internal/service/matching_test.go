package service

import (
	"sort"
	"strings"
	"testing"

	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/entity"
)

func TestGetMatchingProvidersUnionsBothFields(t *testing.T) {
	f := newFixture(t)
	agency := f.addUser(t, "Agence Bleue", common.RoleAgency, func(u *entity.User) {
		u.ServiceType = "plomberie"
		u.Services = []string{"plomberie"}
	})
	company := f.addUser(t, "Tuyaux & Co", common.RoleCompany, func(u *entity.User) {
		u.Services = []string{"electricite", "plomberie"}
		u.ServiceArea = "Paris 11e"
	})
	f.addUser(t, "Atelier Lyonnais", common.RoleContractor, func(u *entity.User) {
		u.Services = []string{"plomberie"}
		u.City = "Lyon"
	})
	f.addUser(t, "Not A Provider", common.RoleOrderGiver, func(u *entity.User) {
		u.ServiceType = "plomberie"
	})

	got := f.svc.Matching.GetMatchingProviders(as(f.client), "plomberie", "paris")

	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.Id)
	}
	want := []string{f.provider.Id.String(), agency.Id.String(), company.Id.String()}
	sort.Strings(ids)
	sort.Strings(want)
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("matched %v, want %v", ids, want)
	}

	if all := f.svc.Matching.GetMatchingProviders(as(f.client), "plomberie", ""); len(all) != 4 {
		t.Fatalf("without area expected 4 providers, got %d", len(all))
	}
	if none := f.svc.Matching.GetMatchingProviders(as(f.client), "menuiserie", "Paris"); len(none) != 0 {
		t.Fatalf("unknown service matched %d providers", len(none))
	}
}

func TestGetMatchingProvidersHeatingPlumbersInParis(t *testing.T) {
	f := newFixture(t)
	agency := f.addUser(t, "Agence Chaleur", common.RoleAgency, func(u *entity.User) {
		u.ServiceType = "plomberie_chauffage"
		u.ServiceArea = "paris"
	})
	company := f.addUser(t, "Chauffage Express", common.RoleCompany, func(u *entity.User) {
		u.Services = []string{"plomberie_chauffage"}
		u.ServiceArea = "paris"
	})

	got := f.svc.Matching.GetMatchingProviders(as(f.client), "plomberie_chauffage", "Paris")

	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.Id)
	}
	want := []string{agency.Id.String(), company.Id.String()}
	sort.Strings(ids)
	sort.Strings(want)
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("matched %v, want %v", ids, want)
	}
}

func TestBroadcastRequestNotifiesMatchingProviders(t *testing.T) {
	f := newFixture(t)
	company := f.addUser(t, "Tuyaux & Co", common.RoleCompany, func(u *entity.User) {
		u.Services = []string{"plomberie"}
		u.ServiceArea = "paris"
	})
	request := f.createRequest(t, "")

	count, err := f.svc.Matching.BroadcastRequest(as(f.client), request.Id, "Paris")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if count != 2 {
		t.Fatalf("notified %d providers, want 2", count)
	}

	for _, u := range []entity.User{f.provider, company} {
		sent := f.notifications(t, u, KindNewRequestAvailable)
		if len(sent) != 1 {
			t.Fatalf("%s got %d NEW_REQUEST_AVAILABLE", u.DisplayName, len(sent))
		}
		noPlaceholders(t, sent[0])
		if sent[0].Body != "Leaking tap (plomberie) in Paris" {
			t.Errorf("body = %q", sent[0].Body)
		}
	}

	confirmations := f.notifications(t, f.client, KindRequestCreated)
	if len(confirmations) != 1 || !strings.Contains(confirmations[0].Body, "2 providers") {
		t.Fatalf("owner confirmation = %+v", confirmations)
	}

	_, err = f.svc.Matching.BroadcastRequest(as(f.provider), request.Id, "")
	expectErr(t, err, ErrNotRequestOwner)
}
