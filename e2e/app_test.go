package e2e

import (
	"strconv"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite drives the JSON API of a running server.
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	request playwright.APIRequestContext
	token   string
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest opens a fresh request context for each test
func (suite *E2ETestSuite) SetupTest() {
	request, err := suite.pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(appURL),
	})
	require.NoError(suite.T(), err, "could not create request context")
	suite.request = request
	suite.token = ""
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.request != nil {
		suite.request.Dispose()
	}
}

func (suite *E2ETestSuite) headers() map[string]string {
	if suite.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + suite.token}
}

func (suite *E2ETestSuite) post(path string, data any) playwright.APIResponse {
	resp, err := suite.request.Post(path, playwright.APIRequestContextPostOptions{
		Data:    data,
		Headers: suite.headers(),
	})
	require.NoError(suite.T(), err, "POST %s", path)
	return resp
}

func (suite *E2ETestSuite) get(path string) playwright.APIResponse {
	resp, err := suite.request.Get(path, playwright.APIRequestContextGetOptions{Headers: suite.headers()})
	require.NoError(suite.T(), err, "GET %s", path)
	return resp
}

func (suite *E2ETestSuite) login() {
	resp := suite.post("/api/auth/login", map[string]any{"nickname": adminUser, "password": adminPassword})
	require.Equal(suite.T(), 200, resp.Status(), "admin login failed")

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(suite.T(), resp.JSON(&body))
	require.NotEmpty(suite.T(), body.Token)
	suite.token = body.Token
}

func (suite *E2ETestSuite) TestHealth() {
	resp := suite.get("/health")
	assert.Equal(suite.T(), 200, resp.Status())
}

func (suite *E2ETestSuite) TestRequiresLogin() {
	resp := suite.get("/api/purchases")
	assert.Equal(suite.T(), 401, resp.Status())
}

func (suite *E2ETestSuite) TestSeededAdminCanLogin() {
	suite.login()

	resp := suite.get("/api/me")
	require.Equal(suite.T(), 200, resp.Status())
	var me struct {
		Nickname string `json:"nickname"`
	}
	require.NoError(suite.T(), resp.JSON(&me))
	assert.Equal(suite.T(), adminUser, me.Nickname)

	resp = suite.get("/api/price-ranges")
	require.Equal(suite.T(), 200, resp.Status())
	var ranges []map[string]any
	require.NoError(suite.T(), resp.JSON(&ranges))
	assert.Len(suite.T(), ranges, 4)
}

func (suite *E2ETestSuite) TestPurchaseLifecycle() {
	resp := suite.post("/api/auth/register", map[string]any{
		"nickname":        "e2e-buyer",
		"password":        "buyer-pass",
		"salary":          100000,
		"current_savings": 500000,
	})
	require.Equal(suite.T(), 201, resp.Status())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(suite.T(), resp.JSON(&session))
	suite.token = session.Token

	resp = suite.post("/api/blacklist", map[string]any{"category": "games"})
	require.Equal(suite.T(), 201, resp.Status())

	resp = suite.post("/api/purchases", map[string]any{"name": "Console", "price": 60000, "category": "video games"})
	require.Equal(suite.T(), 201, resp.Status())
	var created struct {
		ID       int64 `json:"id"`
		Analysis struct {
			CoolingDays int    `json:"cooling_days"`
			RiskLevel   string `json:"risk_level"`
		} `json:"analysis"`
		CategoryMatches struct {
			HighestMatch struct {
				BlacklistedCategory string `json:"blacklisted_category"`
			} `json:"highestMatch"`
		} `json:"category_matches"`
	}
	require.NoError(suite.T(), resp.JSON(&created))
	assert.Equal(suite.T(), 44, created.Analysis.CoolingDays)
	assert.Equal(suite.T(), "medium", created.Analysis.RiskLevel)
	assert.Equal(suite.T(), "games", created.CategoryMatches.HighestMatch.BlacklistedCategory)

	resp, err := suite.request.Put("/api/purchases/"+strconv.FormatInt(created.ID, 10), playwright.APIRequestContextPutOptions{
		Data:    map[string]any{"status": "rejected"},
		Headers: suite.headers(),
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 200, resp.Status())

	resp = suite.get("/api/statistics")
	require.Equal(suite.T(), 200, resp.Status())
	var stats struct {
		Rejected   int             `json:"rejected"`
		TotalSaved decimal.Decimal `json:"total_saved"`
		Efficiency decimal.Decimal `json:"efficiency"`
	}
	require.NoError(suite.T(), resp.JSON(&stats))
	assert.Equal(suite.T(), 1, stats.Rejected)
	assert.True(suite.T(), stats.TotalSaved.Equal(decimal.NewFromInt(60000)))
	assert.True(suite.T(), stats.Efficiency.Equal(decimal.NewFromInt(100)))
}

// TestE2ESuite runs the E2E test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
