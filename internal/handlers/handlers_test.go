// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/syndicator/backend/internal/config"
	"github.com/syndicator/backend/internal/middleware"
	"github.com/syndicator/backend/internal/models"
	"github.com/syndicator/backend/internal/services"
	"github.com/syndicator/backend/internal/utils"
)

type HandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		suite.T().Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.Transaction{},
		&models.Allocation{},
	); err != nil {
		suite.T().Fatalf("failed to migrate test database: %v", err)
	}
	suite.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 2,
		},
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	authService := services.NewAuthService(db, cfg)
	friendService := services.NewFriendService(db)
	transactionService := services.NewTransactionService(db, friendService)
	portfolioService := services.NewPortfolioService(db)

	authHandler := NewAuthHandler(authService)
	friendHandler := NewFriendHandler(friendService)
	transactionHandler := NewTransactionHandler(transactionService)
	portfolioHandler := NewPortfolioHandler(portfolioService)

	r := gin.New()
	r.Use(middleware.I18nMiddleware())

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		friends := v1.Group("/friends")
		friends.Use(middleware.AuthRequired())
		{
			friends.GET("", friendHandler.ListFriends)
			friends.POST("/requests", friendHandler.SendRequest)
			friends.GET("/requests", friendHandler.ListRequests)
			friends.PATCH("/requests/:id", friendHandler.UpdateRequest)
		}

		transactions := v1.Group("/transactions")
		transactions.Use(middleware.AuthRequired())
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("", transactionHandler.List)
			transactions.GET("/:id/allocations", transactionHandler.GetTransactionAllocations)
		}

		allocations := v1.Group("/allocations")
		allocations.Use(middleware.AuthRequired())
		{
			allocations.GET("", transactionHandler.GetUserAllocations)
		}

		portfolio := v1.Group("/portfolio")
		portfolio.Use(middleware.AuthRequired())
		{
			portfolio.GET("", portfolioHandler.GetPortfolio)
		}
	}

	suite.router = r
}

func (suite *HandlerTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			suite.T().Fatalf("failed to encode request body: %v", err)
		}
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) registerUser(username string) string {
	w := suite.request("POST", "/v1/auth/register", "", map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), response.Success)
	assert.NotEmpty(suite.T(), response.Data.Token)
	return response.Data.Token
}

// befriend wires an accepted friendship directly into the store.
func (suite *HandlerTestSuite) befriend(a, b string) {
	var userA, userB models.User
	assert.NoError(suite.T(), suite.db.Where("username = ?", a).First(&userA).Error)
	assert.NoError(suite.T(), suite.db.Where("username = ?", b).First(&userB).Error)
	assert.NoError(suite.T(), suite.db.Create(&models.FriendRequest{
		RequesterID: userA.ID,
		RecipientID: userB.ID,
		Status:      models.FriendRequestAccepted,
	}).Error)
}

func (suite *HandlerTestSuite) TestRegisterAndLogin() {
	suite.registerUser("newuser")

	w := suite.request("POST", "/v1/auth/login", "", map[string]interface{}{
		"username": "newuser",
		"password": "TestPass123!",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("POST", "/v1/auth/login", "", map[string]interface{}{
		"username": "newuser",
		"password": "WrongPass123!",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestRegisterRejectsWeakPassword() {
	w := suite.request("POST", "/v1/auth/register", "", map[string]interface{}{
		"username": "weakling",
		"email":    "weakling@example.com",
		"password": "short",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestMeRequiresToken() {
	w := suite.request("GET", "/v1/auth/me", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	token := suite.registerUser("someone")
	w = suite.request("GET", "/v1/auth/me", token, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestFriendRequestFlow() {
	aliceToken := suite.registerUser("alice")
	bobToken := suite.registerUser("bob")

	w := suite.request("POST", "/v1/friends/requests", aliceToken, map[string]interface{}{
		"username": "bob",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			Request struct {
				ID string `json:"id"`
			} `json:"request"`
		} `json:"data"`
	}
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &created))

	// Bob accepts.
	w = suite.request("PATCH", "/v1/friends/requests/"+created.Data.Request.ID, bobToken, map[string]interface{}{
		"status": "accepted",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("GET", "/v1/friends", aliceToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var friends struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &friends))
	assert.Equal(suite.T(), 1, friends.Data.Total)
}

func (suite *HandlerTestSuite) TestFriendRequestToUnknownUser() {
	token := suite.registerUser("lonely")

	w := suite.request("POST", "/v1/friends/requests", token, map[string]interface{}{
		"username": "ghost",
	})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestCreateTransactionFlow() {
	riskTakerToken := suite.registerUser("risktaker")
	suite.registerUser("alice")
	suite.befriend("risktaker", "alice")

	w := suite.request("POST", "/v1/transactions", riskTakerToken, map[string]interface{}{
		"total_principal_amount": 10000,
		"total_interest_rate":    12,
		"syndicate_details": map[string]interface{}{
			"alice": map[string]interface{}{"principal_share": 10000, "interest_rate": 12},
		},
		"commission_enabled":      true,
		"commission_rate_percent": 10,
		"start_date":              "2026-01-15",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response struct {
		Data struct {
			Transaction struct {
				ID string `json:"id"`
			} `json:"transaction"`
			TransactionType string `json:"transaction_type"`
		} `json:"data"`
	}
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "syndicated", response.Data.TransactionType)

	// The risk taker sees the allocation set.
	w = suite.request("GET", "/v1/transactions/"+response.Data.Transaction.ID+"/allocations", riskTakerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// An outsider is refused.
	outsiderToken := suite.registerUser("outsider")
	w = suite.request("GET", "/v1/transactions/"+response.Data.Transaction.ID+"/allocations", outsiderToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestCreateTransactionValidationFailure() {
	token := suite.registerUser("risktaker")

	w := suite.request("POST", "/v1/transactions", token, map[string]interface{}{
		"total_principal_amount": -5,
		"total_interest_rate":    12,
		"start_date":             "2026-01-15",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var response struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(suite.T(), response.Success)
	assert.Equal(suite.T(), "BAD_REQUEST", response.Error.Code)
}

func (suite *HandlerTestSuite) TestCreateTransactionWithNonFriend() {
	token := suite.registerUser("risktaker")
	suite.registerUser("stranger")

	w := suite.request("POST", "/v1/transactions", token, map[string]interface{}{
		"total_principal_amount": 1000,
		"total_interest_rate":    10,
		"syndicate_details": map[string]interface{}{
			"stranger": map[string]interface{}{"principal_share": 1000, "interest_rate": 10},
		},
		"start_date": "2026-01-15",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestAllocationsAndPortfolio() {
	riskTakerToken := suite.registerUser("risktaker")
	aliceToken := suite.registerUser("alice")
	suite.befriend("risktaker", "alice")

	w := suite.request("POST", "/v1/transactions", riskTakerToken, map[string]interface{}{
		"total_principal_amount": 1000,
		"total_interest_rate":    10,
		"syndicate_details": map[string]interface{}{
			"alice": map[string]interface{}{"principal_share": 1000, "interest_rate": 10},
		},
		"commission_enabled":      true,
		"commission_rate_percent": 20,
		"start_date":              "2026-02-01",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request("GET", "/v1/allocations", aliceToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var allocations struct {
		Data struct {
			Summary struct {
				AllocationCount     int     `json:"allocation_count"`
				TotalCommissionPaid float64 `json:"total_commission_paid"`
			} `json:"summary"`
		} `json:"data"`
	}
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &allocations))
	assert.Equal(suite.T(), 1, allocations.Data.Summary.AllocationCount)
	assert.InDelta(suite.T(), 20.0, allocations.Data.Summary.TotalCommissionPaid, 0.001)

	w = suite.request("GET", "/v1/portfolio", riskTakerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var portfolio struct {
		Data struct {
			TotalCommissionImpact float64 `json:"total_commission_impact"`
			AsRiskTaker           struct {
				CommissionEarned float64 `json:"commission_earned"`
			} `json:"as_risk_taker"`
		} `json:"data"`
	}
	assert.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &portfolio))
	assert.InDelta(suite.T(), 20.0, portfolio.Data.AsRiskTaker.CommissionEarned, 0.001)
	assert.InDelta(suite.T(), 20.0, portfolio.Data.TotalCommissionImpact, 0.001)
}

func (suite *HandlerTestSuite) TestListTransactions() {
	riskTakerToken := suite.registerUser("risktaker")

	w := suite.request("POST", "/v1/transactions", riskTakerToken, map[string]interface{}{
		"total_principal_amount": 500,
		"total_interest_rate":    8,
		"start_date":             "2026-04-01",
	})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request("GET", "/v1/transactions", riskTakerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "1", w.Header().Get("X-Total-Count"))
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
