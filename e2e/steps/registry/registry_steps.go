package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(ctx context.Context, path string, body any) error
	GET(ctx context.Context, path string) error
	ResponseField(field string) (any, error)
	Account(name string) string
	ActAs(name string)
	Status() int
	Body() []byte
}

// RegisterSteps registers registry step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc, assets: make(map[string]string)}

	ctx.Step(`^the registry allows (\d+) assets per account$`, steps.registryAllows)
	ctx.Step(`^I am "([^"]*)"$`, steps.iAm)
	ctx.Step(`^I create an asset$`, steps.createAsset)
	ctx.Step(`^I create an asset remembered as "([^"]*)"$`, steps.createAssetAs)
	ctx.Step(`^I transfer "([^"]*)" to "([^"]*)"$`, steps.transfer)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^"([^"]*)" should own (\d+) assets$`, steps.shouldOwnCount)
	ctx.Step(`^"([^"]*)" should own exactly "([^"]*)"$`, steps.shouldOwnExactly)
	ctx.Step(`^"([^"]*)" should own "([^"]*)"$`, steps.shouldOwn)
	ctx.Step(`^the owner of "([^"]*)" should be "([^"]*)"$`, steps.ownerShouldBe)
}

type registrySteps struct {
	tc     TestContext
	assets map[string]string
}

func (s *registrySteps) registryAllows(ctx context.Context, n int) error {
	if err := s.tc.GET(ctx, "/v1/registry/stats"); err != nil {
		return err
	}
	v, err := s.tc.ResponseField("max_owned")
	if err != nil {
		return err
	}
	if got, _ := v.(float64); int(got) != n {
		return fmt.Errorf("server max_owned is %v, start it with ASSETD_MAX_OWNED=%d", v, n)
	}
	return nil
}

func (s *registrySteps) iAm(_ context.Context, name string) error {
	s.tc.ActAs(name)
	return nil
}

func (s *registrySteps) createAsset(ctx context.Context) error {
	return s.tc.POST(ctx, "/v1/assets", nil)
}

func (s *registrySteps) createAssetAs(ctx context.Context, label string) error {
	if err := s.createAsset(ctx); err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return fmt.Errorf("create returned %d: %s", s.tc.Status(), s.tc.Body())
	}
	v, err := s.tc.ResponseField("identity")
	if err != nil {
		return err
	}
	s.assets[label], _ = v.(string)
	return nil
}

func (s *registrySteps) identity(label string) (string, error) {
	identity, ok := s.assets[label]
	if !ok {
		return "", fmt.Errorf("no asset remembered as %q", label)
	}
	return identity, nil
}

func (s *registrySteps) transfer(ctx context.Context, label, to string) error {
	identity, err := s.identity(label)
	if err != nil {
		return err
	}
	return s.tc.POST(ctx, "/v1/assets/"+identity+"/transfer", map[string]string{"to": s.tc.Account(to)})
}

func (s *registrySteps) statusShouldBe(_ context.Context, status int) error {
	if s.tc.Status() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.Status(), s.tc.Body())
	}
	return nil
}

func (s *registrySteps) errorCodeShouldBe(_ context.Context, code string) error {
	v, err := s.tc.ResponseField("error")
	if err != nil {
		return err
	}
	if v != code {
		return fmt.Errorf("expected error %q, got %v", code, v)
	}
	return nil
}

func (s *registrySteps) owned(ctx context.Context, name string) ([]string, error) {
	if err := s.tc.GET(ctx, "/v1/accounts/"+s.tc.Account(name)+"/assets"); err != nil {
		return nil, err
	}
	var resp struct {
		Assets []string `json:"assets"`
	}
	if err := json.Unmarshal(s.tc.Body(), &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

func (s *registrySteps) shouldOwnCount(ctx context.Context, name string, n int) error {
	items, err := s.owned(ctx, name)
	if err != nil {
		return err
	}
	if len(items) != n {
		return fmt.Errorf("%s owns %d assets, want %d", name, len(items), n)
	}
	return nil
}

func (s *registrySteps) shouldOwnExactly(ctx context.Context, name, label string) error {
	identity, err := s.identity(label)
	if err != nil {
		return err
	}
	items, err := s.owned(ctx, name)
	if err != nil {
		return err
	}
	if len(items) != 1 || items[0] != identity {
		return fmt.Errorf("%s owns %v, want only %s", name, items, identity)
	}
	return nil
}

func (s *registrySteps) shouldOwn(ctx context.Context, name, label string) error {
	identity, err := s.identity(label)
	if err != nil {
		return err
	}
	items, err := s.owned(ctx, name)
	if err != nil {
		return err
	}
	if !slices.Contains(items, identity) {
		return fmt.Errorf("%s owns %v, missing %s", name, items, identity)
	}
	return nil
}

func (s *registrySteps) ownerShouldBe(ctx context.Context, label, name string) error {
	identity, err := s.identity(label)
	if err != nil {
		return err
	}
	if err := s.tc.GET(ctx, "/v1/assets/"+identity); err != nil {
		return err
	}
	v, err := s.tc.ResponseField("owner")
	if err != nil {
		return err
	}
	if v != s.tc.Account(name) {
		return fmt.Errorf("owner of %s is %v, want %s", label, v, name)
	}
	return nil
}
