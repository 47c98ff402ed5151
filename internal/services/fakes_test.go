package services

import "context"

// fakeGenerator scripts model replies for the pipeline tests. Each call
// is handed to the reply function along with a running call count.
type fakeGenerator struct {
	calls int
	reply func(call int, req GenerateRequest) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.calls++
	return f.reply(f.calls, req)
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, req GenerateRequest) (string, error) {
	f.calls++
	raw, err := f.reply(f.calls, req)
	if err != nil {
		return "", err
	}
	outcome, err := RepairJSON(raw)
	if err != nil {
		return "", err
	}
	return outcome.Text, nil
}
