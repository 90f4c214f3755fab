package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"partyflow/internal/status"
	"partyflow/utils"
)

// FakeProvider keeps intents in memory. It backs the development
// simulate-payment endpoint and the service tests.
type FakeProvider struct {
	mu      sync.Mutex
	intents map[string]*Intent
	baseURL string
}

func NewFakeProvider(baseURL string) *FakeProvider {
	return &FakeProvider{
		intents: make(map[string]*Intent),
		baseURL: baseURL,
	}
}

func (p *FakeProvider) CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error) {
	code, err := utils.GenerateCode(8)
	if err != nil {
		return nil, err
	}
	id := "cs_test_" + code

	meta := make(Metadata, len(req.Metadata))
	for k, v := range req.Metadata {
		meta[k] = v
	}

	intent := &Intent{
		ID:       id,
		URL:      fmt.Sprintf("%s/fake-checkout/%s", p.baseURL, id),
		Status:   StatusUnpaid,
		Amount:   req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Currency: req.Currency,
		Metadata: meta,
	}

	p.mu.Lock()
	p.intents[id] = intent
	p.mu.Unlock()

	return cloneIntent(intent), nil
}

func (p *FakeProvider) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	return cloneIntent(intent), nil
}

// MarkPaid flips an intent to paid, standing in for the buyer completing
// the hosted checkout.
func (p *FakeProvider) MarkPaid(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[id]
	if !ok {
		return status.ErrNotFound
	}
	intent.Status = StatusPaid
	return nil
}

func (p *FakeProvider) Close(ctx context.Context) error {
	return nil
}

func cloneIntent(in *Intent) *Intent {
	out := *in
	out.Metadata = make(Metadata, len(in.Metadata))
	for k, v := range in.Metadata {
		out.Metadata[k] = v
	}
	return &out
}
