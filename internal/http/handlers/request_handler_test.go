package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/services"
)

func TestCreateRequest_RedirectTargets(t *testing.T) {
	var gotMsg string
	reqs := &stubRequests{
		create: func(_ context.Context, itemID uint64, requester, message string) (*domain.Request, error) {
			gotMsg = message
			switch requester {
			case "owner":
				return nil, services.ErrSelfRequest
			case "late":
				return nil, services.ErrAlreadySold
			}
			return &domain.Request{ID: 11, ItemID: itemID, RequesterID: requester, Status: domain.RequestPending}, nil
		},
	}
	r := newTestRouter(New(Deps{Requests: reqs}))

	cases := []struct {
		name   string
		user   string
		form   url.Values
		status int
		loc    string
		flash  string
	}{
		{"plain request", "buyer", url.Values{"message": {"hi"}}, http.StatusSeeOther, "/items/5", "success:Request sent to the seller"},
		{"from buy button", "buyer", url.Values{"from_buy": {"1"}}, http.StatusSeeOther, "/requests/my_requests",
			"success:Order request sent to the seller. Please wait for the seller to confirm."},
		{"own item", "owner", nil, http.StatusSeeOther, "/items/5", "error:cannot request your own item: self reference"},
		{"sold", "late", nil, http.StatusSeeOther, "/items/5", "error:item already sold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doForm(r, http.MethodPost, "/requests/create/5", tc.user, tc.form)
			if w.Code != tc.status || w.Header().Get("Location") != tc.loc {
				t.Fatalf("status=%d location=%q", w.Code, w.Header().Get("Location"))
			}
			if f := flashOf(t, w); f != tc.flash {
				t.Fatalf("flash=%q; want %q", f, tc.flash)
			}
		})
	}
	if gotMsg != "" {
		t.Fatalf("last request carried no message, got %q", gotMsg)
	}
}

func TestCreateRequest_JSONStatusCodes(t *testing.T) {
	reqs := &stubRequests{
		create: func(_ context.Context, itemID uint64, requester, _ string) (*domain.Request, error) {
			if itemID == 404 {
				return nil, services.ErrItemNotFound
			}
			if requester == "owner" {
				return nil, services.ErrSelfRequest
			}
			return &domain.Request{ID: 1, ItemID: itemID, RequesterID: requester}, nil
		},
	}
	r := newTestRouter(New(Deps{Requests: reqs}))

	if w := doJSON(r, http.MethodPost, "/requests/create/5", "buyer", `{"message":"still there?"}`); w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	w := doJSON(r, http.MethodPost, "/requests/create/5", "owner", `{}`)
	if w.Code != http.StatusBadRequest || errCode(t, w) != ErrCodeSelfReference {
		t.Fatalf("self: status=%d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPost, "/requests/create/404", "buyer", `{}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: status=%d", w.Code)
	}
}

func TestCreateRequest_MalformedBody(t *testing.T) {
	calls := 0
	reqs := &stubRequests{
		create: func(_ context.Context, itemID uint64, requester, _ string) (*domain.Request, error) {
			calls++
			return &domain.Request{ID: 3, ItemID: itemID, RequesterID: requester}, nil
		},
	}
	r := newTestRouter(New(Deps{Requests: reqs}))

	w := doJSON(r, http.MethodPost, "/requests/create/5", "buyer", `{"message": 42`)
	if w.Code != http.StatusBadRequest || errCode(t, w) != ErrCodeBadRequest {
		t.Fatalf("malformed: status=%d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPost, "/requests/create/5", "buyer", `{"message": ["a"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong type: status=%d body=%s", w.Code, w.Body.String())
	}
	if calls != 0 {
		t.Fatalf("service called %d times for malformed bodies", calls)
	}

	// No body at all is still a valid request.
	if w := doJSON(r, http.MethodPost, "/requests/create/5", "buyer", ""); w.Code != http.StatusCreated {
		t.Fatalf("empty body: status=%d body=%s", w.Code, w.Body.String())
	}
	if calls != 1 {
		t.Fatalf("service calls = %d, want 1", calls)
	}
}

func TestRequestLists_AndPendingCount(t *testing.T) {
	reqs := &stubRequests{
		listOwner: func(_ context.Context, owner string) ([]domain.RequestWithItemAndRequester, error) {
			return []domain.RequestWithItemAndRequester{{Request: domain.Request{ID: 1, OwnerID: owner}, RequesterName: "Ravi"}}, nil
		},
		listMine: func(_ context.Context, requester string) ([]domain.RequestWithItemAndOwner, error) {
			return []domain.RequestWithItemAndOwner{{Request: domain.Request{ID: 2, RequesterID: requester}}}, nil
		},
		countPending: func(context.Context, string) (int64, error) { return 3, nil },
	}
	r := newTestRouter(New(Deps{Requests: reqs}))

	w := doJSON(r, http.MethodGet, "/requests", "seller", "")
	var incoming []domain.RequestWithItemAndRequester
	if err := json.Unmarshal(w.Body.Bytes(), &incoming); err != nil || len(incoming) != 1 || incoming[0].OwnerID != "seller" {
		t.Fatalf("incoming: %s (%v)", w.Body.String(), err)
	}
	w = doJSON(r, http.MethodGet, "/requests/my_requests", "buyer", "")
	var mine []domain.RequestWithItemAndOwner
	if err := json.Unmarshal(w.Body.Bytes(), &mine); err != nil || len(mine) != 1 || mine[0].RequesterID != "buyer" {
		t.Fatalf("mine: %s (%v)", w.Body.String(), err)
	}
	w = doJSON(r, http.MethodGet, "/requests/pending_count", "seller", "")
	var cnt CountResponse
	if err := json.Unmarshal(w.Body.Bytes(), &cnt); err != nil || cnt.Count != 3 {
		t.Fatalf("count: %s (%v)", w.Body.String(), err)
	}
}

func TestAcceptRequest(t *testing.T) {
	reqs := &stubRequests{
		accept: func(_ context.Context, id uint64, actor string) (*domain.Order, error) {
			switch {
			case actor != "seller":
				return nil, services.ErrForbidden
			case id == 2:
				return nil, services.ErrAlreadySold
			case id == 3:
				return nil, services.ErrInvalidTransition
			}
			return &domain.Order{ID: 77, RequestID: &id, SellerID: actor}, nil
		},
	}
	r := newTestRouter(New(Deps{Requests: reqs}))

	w := doJSON(r, http.MethodPost, "/requests/accept/1", "seller", "")
	var o domain.Order
	if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &o) != nil || o.ID != 77 {
		t.Fatalf("accept: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doForm(r, http.MethodPost, "/requests/accept/1", "seller", nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/orders/77" {
		t.Fatalf("form accept: status=%d location=%q", w.Code, w.Header().Get("Location"))
	}
	if f := flashOf(t, w); f != "success:Request accepted - order created" {
		t.Fatalf("flash=%q", f)
	}

	for _, tc := range []struct {
		path, user string
		status     int
		code       string
	}{
		{"/requests/accept/1", "buyer", http.StatusForbidden, ErrCodeForbidden},
		{"/requests/accept/2", "seller", http.StatusConflict, ErrCodeAlreadySold},
		{"/requests/accept/3", "seller", http.StatusConflict, ErrCodeInvalidTransition},
		{"/requests/accept/x", "seller", http.StatusBadRequest, ErrCodeBadRequest},
	} {
		w := doJSON(r, http.MethodPost, tc.path, tc.user, "")
		if w.Code != tc.status || errCode(t, w) != tc.code {
			t.Fatalf("%s as %s: status=%d body=%s", tc.path, tc.user, w.Code, w.Body.String())
		}
	}

	w = doForm(r, http.MethodPost, "/requests/accept/2", "seller", nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/requests" || flashOf(t, w) != "error:item already sold" {
		t.Fatalf("form sold: status=%d location=%q flash=%q", w.Code, w.Header().Get("Location"), flashOf(t, w))
	}
}

func TestDeclineRequest(t *testing.T) {
	reqs := &stubRequests{
		decline: func(_ context.Context, id uint64, _ string) error {
			if id == 9 {
				return services.ErrRequestNotFound
			}
			return nil
		},
	}
	r := newTestRouter(New(Deps{Requests: reqs}))

	w := doJSON(r, http.MethodPost, "/requests/decline/4", "seller", "")
	var body map[string]any
	if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &body) != nil || body["status"] != string(domain.RequestDeclined) {
		t.Fatalf("decline: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doForm(r, http.MethodPost, "/requests/decline/4", "seller", nil)
	if w.Code != http.StatusSeeOther || flashOf(t, w) != "info:Request declined" {
		t.Fatalf("form decline: status=%d flash=%q", w.Code, flashOf(t, w))
	}

	w = doJSON(r, http.MethodPost, "/requests/decline/9", "seller", "")
	if w.Code != http.StatusNotFound || errCode(t, w) != ErrCodeNotFound {
		t.Fatalf("missing: status=%d", w.Code)
	}
}
