package e2e

import (
	"github.com/cucumber/godog"

	"maplecase/e2e/steps/cases"
	"maplecase/e2e/steps/common"
)

// RegisterSteps registers all step definitions from the step packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	cases.RegisterSteps(ctx, tc)
}
