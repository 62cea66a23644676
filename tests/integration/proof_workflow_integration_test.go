package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/controllers"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/printworks-studio/printworks-api/services"
	"github.com/printworks-studio/printworks-api/tests/testutil"
)

// ProofWorkflowIntegrationTestSuite covers the proof review loop: admin
// uploads a version, the customer annotates and approves through the token
// endpoints, and the admin resolves feedback.
type ProofWorkflowIntegrationTestSuite struct {
	suite.Suite
	router *gin.Engine
	db     *gorm.DB
	order  models.Order
	s3     *services.MockS3Service
	mailer *services.MockMailer
}

func (suite *ProofWorkflowIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(suite.T())
}

func (suite *ProofWorkflowIntegrationTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderNote{},
		&models.Proof{},
		&models.Annotation{},
		&models.Communication{},
		&models.AuditLog{},
		&models.OrderAck{},
	)
	suite.NoError(err)
	config.SetDB(db)
	config.SetConfig(&config.Config{
		PublicURL: "https://portal.printworks.studio",
		MailFrom:  "orders@printworks.studio",
	})

	admin := models.User{Auth0ID: "auth0|admin", Name: "Sam Okafor", Email: "sam@printworks.studio", Role: "admin"}
	suite.NoError(db.Create(&admin).Error)

	suite.order = models.Order{
		OrderNumber: "1001",
		Status:      models.StatusNew,
		ShippingInfo: models.ShippingInfo{
			ContactName: "Dana Reyes",
			Email:       "dana@northside.edu",
		},
		Items: []models.OrderItem{{Name: "Banner 3x6", Quantity: 2}},
	}
	suite.NoError(db.Create(&suite.order).Error)

	suite.s3 = services.NewMockS3Service()
	suite.s3.SetAsMockForTesting()
	suite.mailer = services.NewMockMailer()
	suite.mailer.SetAsMockForTesting()

	router := gin.New()

	public := router.Group("/api/v1/proof-review")
	{
		public.GET("/:token", controllers.GetProofByToken)
		public.POST("/:token/annotations", controllers.AnnotateProofByToken)
		public.POST("/:token/approve", controllers.ApproveProofByToken)
	}

	authed := router.Group("/api/v1", testutil.MockAuthMiddleware("auth0|admin", "admin", "token-admin"))
	{
		authed.GET("/orders/:id/proofs", controllers.ListProofs)
		authed.POST("/orders/:id/proofs", controllers.UploadProof)
		authed.DELETE("/orders/:id/proofs/:proofId", controllers.DeleteProof)
		authed.POST("/orders/:id/proofs/:proofId/annotations", controllers.AnnotateProof)
		authed.PATCH("/orders/:id/proofs/:proofId/annotations/:annotationId/resolve", controllers.ResolveAnnotation)
	}
	suite.router = router
}

func (suite *ProofWorkflowIntegrationTestSuite) uploadProof(title string, notify bool) models.Proof {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "proof_v1.pdf")
	suite.NoError(err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	suite.NoError(err)
	suite.NoError(writer.WriteField("title", title))
	if notify {
		suite.NoError(writer.WriteField("notify_customer", "true"))
	}
	suite.NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/orders/%d/proofs", suite.order.ID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Data struct {
			Proof models.Proof `json:"proof"`
		} `json:"data"`
	}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response.Data.Proof
}

func (suite *ProofWorkflowIntegrationTestSuite) jsonRequest(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ProofWorkflowIntegrationTestSuite) TestReviewLoop() {
	proof := suite.uploadProof("Round 1", true)
	suite.Equal(1, proof.Version)
	suite.Equal(models.ProofPending, proof.Status)
	suite.NotEmpty(proof.AccessToken)

	// The customer got a review link.
	sent := suite.mailer.SentEmails()
	suite.Len(sent, 1)
	suite.Contains(sent[0].Body, proof.AccessToken)

	// Customer opens the review page and leaves a pin.
	w := suite.jsonRequest(http.MethodGet, "/api/v1/proof-review/"+proof.AccessToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.jsonRequest(http.MethodPost, "/api/v1/proof-review/"+proof.AccessToken+"/annotations",
		map[string]interface{}{
			"type":        "pin",
			"comment":     "Logo should be bigger",
			"author_name": "Dana Reyes",
			"x":           0.4,
			"y":           0.2,
		})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	var reloaded models.Proof
	suite.NoError(suite.db.First(&reloaded, proof.ID).Error)
	suite.Equal(models.ProofFeedbackReceived, reloaded.Status)

	// Admin resolves the feedback.
	var annotation models.Annotation
	suite.NoError(suite.db.Where("proof_id = ?", proof.ID).First(&annotation).Error)

	w = suite.jsonRequest(http.MethodPatch,
		fmt.Sprintf("/api/v1/orders/%d/proofs/%d/annotations/%d/resolve", suite.order.ID, proof.ID, annotation.ID), nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	suite.NoError(suite.db.First(&annotation, annotation.ID).Error)
	suite.True(annotation.Resolved)
	suite.Equal("Sam Okafor", *annotation.ResolvedBy)

	// Customer signs off.
	w = suite.jsonRequest(http.MethodPost, "/api/v1/proof-review/"+proof.AccessToken+"/approve",
		map[string]interface{}{
			"signed_off_by": "Dana Reyes",
			"signature":     "Dana Reyes",
		})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	suite.NoError(suite.db.First(&reloaded, proof.ID).Error)
	suite.Equal(models.ProofApproved, reloaded.Status)
	suite.Equal("Dana Reyes", *reloaded.SignedOffBy)
	suite.NotNil(reloaded.SignedOffAt)

	// The loop left exactly the expected audit trail in creation order.
	var actions []string
	suite.NoError(suite.db.Model(&models.AuditLog{}).Order("id ASC").Pluck("action", &actions).Error)
	suite.Equal([]string{
		"proof.upload",
		"order.email_send",
		"proof.annotate",
		"proof.annotation_resolve",
		"proof.approve",
	}, actions)
}

func (suite *ProofWorkflowIntegrationTestSuite) TestReviewLoopWithoutNotificationAuditTrail() {
	proof := suite.uploadProof("Round 1", false)
	suite.Empty(suite.mailer.SentEmails())

	w := suite.jsonRequest(http.MethodPost, "/api/v1/proof-review/"+proof.AccessToken+"/annotations",
		map[string]interface{}{
			"type":        "pin",
			"comment":     "Logo should be bigger",
			"author_name": "Dana Reyes",
			"x":           0.4,
			"y":           0.2,
		})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	var annotation models.Annotation
	suite.NoError(suite.db.Where("proof_id = ?", proof.ID).First(&annotation).Error)
	w = suite.jsonRequest(http.MethodPatch,
		fmt.Sprintf("/api/v1/orders/%d/proofs/%d/annotations/%d/resolve", suite.order.ID, proof.ID, annotation.ID), nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.jsonRequest(http.MethodPost, "/api/v1/proof-review/"+proof.AccessToken+"/approve",
		map[string]interface{}{
			"signed_off_by": "Dana Reyes",
			"signature":     "Dana Reyes",
		})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	// No notification, no extra entries.
	var actions []string
	suite.NoError(suite.db.Model(&models.AuditLog{}).Order("id ASC").Pluck("action", &actions).Error)
	suite.Equal([]string{
		"proof.upload",
		"proof.annotate",
		"proof.annotation_resolve",
		"proof.approve",
	}, actions)
}

func (suite *ProofWorkflowIntegrationTestSuite) TestVersionsNeverReused() {
	first := suite.uploadProof("Round 1", false)
	second := suite.uploadProof("Round 2", false)
	suite.Equal(1, first.Version)
	suite.Equal(2, second.Version)

	w := suite.jsonRequest(http.MethodDelete,
		fmt.Sprintf("/api/v1/orders/%d/proofs/%d", suite.order.ID, second.ID), nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	third := suite.uploadProof("Round 3", false)
	suite.Equal(3, third.Version)
}

func (suite *ProofWorkflowIntegrationTestSuite) TestRejectedFormat() {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "design.psd")
	suite.NoError(err)
	_, err = part.Write([]byte("not a supported format"))
	suite.NoError(err)
	suite.NoError(writer.WriteField("title", "Round 1"))
	suite.NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/orders/%d/proofs", suite.order.ID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	errorData := response["error"].(map[string]interface{})
	suite.Equal("INVALID_FILE_FORMAT", errorData["code"])
}

func TestProofWorkflowIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ProofWorkflowIntegrationTestSuite))
}
