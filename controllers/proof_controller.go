package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/printworks-studio/printworks-api/services"
	"github.com/printworks-studio/printworks-api/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ListProofs handles GET /api/v1/orders/:id/proofs
func ListProofs(c *gin.Context) {
	order := findOrder(c)
	if order == nil {
		return
	}

	var proofs []models.Proof
	err := config.GetDB().
		Preload("Annotations").
		Where("order_id = ?", order.ID).
		Order("version ASC").
		Find(&proofs).Error
	if err != nil {
		databaseError(c, "Failed to fetch proofs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proofs,
	})
}

// UploadProof handles POST /api/v1/orders/:id/proofs - uploads a new proof
// version. Versions come from the order's high-water mark, so a deleted
// version number is never handed out again.
func UploadProof(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	order := findOrder(c)
	if order == nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		validationError(c, "Proof file is required")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}
	notifyCustomer := c.PostForm("notify_customer") == "true"

	contentType, err := utils.ValidateProofFile(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		code := "INVALID_FILE"
		if errors.As(err, &uploadErr) {
			code = uploadErr.Code
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	s3Key, err := services.GetS3Service().UploadFile(fileHeader, "proofs", contentType)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPSTREAM_FAILURE",
				"message": "Failed to store proof file",
			},
		})
		return
	}

	db := config.GetDB()

	proof := models.Proof{
		OrderID:     order.ID,
		Title:       title,
		FileURL:     s3Key,
		FileType:    contentType,
		Status:      models.ProofPending,
		AccessToken: uuid.NewString(),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).
			Update("proof_version_seq", gorm.Expr("proof_version_seq + 1")).Error; err != nil {
			return err
		}
		var seq int
		if err := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Pluck("proof_version_seq", &seq).Error; err != nil {
			return err
		}
		proof.Version = seq
		return tx.Create(&proof).Error
	})
	if err != nil {
		databaseError(c, "Failed to create proof")
		return
	}

	services.RecordAudit(models.CategoryProofs, "proof.upload", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"title":       proof.Title,
		"version":     proof.Version,
		"fileType":    proof.FileType,
	}, c.ClientIP())

	notificationSent := false
	if notifyCustomer && order.ShippingInfo.Email != "" {
		if err := sendProofNotification(order, &proof, actor, c.ClientIP()); err != nil {
			log.Warn().Err(err).Str("order", order.OrderNumber).Msg("Proof notification failed")
		} else {
			notificationSent = true
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"proof":             proof,
			"notification_sent": notificationSent,
		},
	})
}

// sendProofNotification emails the customer a review link for a new proof and
// records the attempt in the communication log.
func sendProofNotification(order *models.Order, proof *models.Proof, actor *models.Actor, ip string) error {
	cfg := config.GetConfig()
	reviewURL := fmt.Sprintf("%s/proof-review/%s", cfg.PublicURL, proof.AccessToken)

	subject := fmt.Sprintf("Proof v%d ready for review (order #%s)", proof.Version, order.OrderNumber)
	body := fmt.Sprintf(
		"Hi %s,\n\nA new proof is ready for your review: %s\n\nOpen the link to view it, leave feedback, or approve it for print.\n",
		order.ShippingInfo.ContactName, reviewURL,
	)

	err := services.GetMailer().Send(services.OutboundEmail{
		To:      order.ShippingInfo.Email,
		CC:      order.CCEmails,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return err
	}

	comm := models.Communication{
		OrderID:        order.ID,
		Direction:      models.DirectionOutbound,
		Subject:        subject,
		Body:           body,
		SenderEmail:    cfg.MailFrom,
		RecipientEmail: order.ShippingInfo.Email,
	}
	if err := config.GetDB().Create(&comm).Error; err != nil {
		log.Error().Err(err).Msg("Failed to record proof notification communication")
	}

	services.RecordAudit(models.CategoryOrders, "order.email_send", actor, map[string]interface{}{
		"orderNumber":     order.OrderNumber,
		"subject":         subject,
		"recipient":       order.ShippingInfo.Email,
		"attachmentCount": 0,
	}, ip)

	return nil
}

// DeleteProof handles DELETE /api/v1/proofs/:proofId - removes a proof and its
// annotations. Irreversible; the version number is never reused.
func DeleteProof(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	db := config.GetDB()
	var proof models.Proof
	if err := db.First(&proof, c.Param("proofId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROOF_NOT_FOUND",
				"message": "Proof not found",
			},
		})
		return
	}

	var order models.Order
	if err := db.First(&order, proof.OrderID).Error; err != nil {
		databaseError(c, "Failed to load owning order")
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proof_id = ?", proof.ID).Delete(&models.Annotation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&proof).Error
	})
	if err != nil {
		databaseError(c, "Failed to delete proof")
		return
	}

	// Best-effort: the DB row is the source of truth, a stale S3 object is
	// cleaned up out of band if this fails.
	if err := services.GetS3Service().DeleteFile(proof.FileURL); err != nil {
		log.Warn().Err(err).Str("key", proof.FileURL).Msg("Failed to delete proof file from S3")
	}

	services.RecordAudit(models.CategoryProofs, "proof.delete", actor, map[string]interface{}{
		"orderNumber": order.OrderNumber,
		"title":       proof.Title,
		"version":     proof.Version,
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": true},
	})
}

// AnnotateRequest represents the request body for leaving proof feedback
type AnnotateRequest struct {
	Type       models.AnnotationType `json:"type" binding:"required,oneof=pin area"`
	Comment    string                `json:"comment" binding:"required"`
	AuthorName string                `json:"author_name"`
	X          float64               `json:"x"`
	Y          float64               `json:"y"`
	W          float64               `json:"w"`
	H          float64               `json:"h"`
}

// AnnotateProof handles POST /api/v1/proofs/:proofId/annotations - admin-side
// feedback on a proof
func AnnotateProof(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	var proof models.Proof
	if err := config.GetDB().First(&proof, c.Param("proofId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROOF_NOT_FOUND",
				"message": "Proof not found",
			},
		})
		return
	}

	author := req.AuthorName
	if author == "" {
		author = actor.Name
	}

	annotation, err := appendAnnotation(&proof, req, author, actor, c.ClientIP())
	if err != nil {
		databaseError(c, "Failed to create annotation")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    annotation,
	})
}

// appendAnnotation writes an annotation, moves a pending proof to
// feedback_received, and emits the audit event. Shared by the admin and the
// public token routes.
func appendAnnotation(proof *models.Proof, req AnnotateRequest, author string, actor *models.Actor, ip string) (*models.Annotation, error) {
	db := config.GetDB()

	annotation := models.Annotation{
		ProofID:    proof.ID,
		Type:       req.Type,
		Comment:    req.Comment,
		AuthorName: author,
		X:          req.X,
		Y:          req.Y,
		W:          req.W,
		H:          req.H,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&annotation).Error; err != nil {
			return err
		}
		if proof.Status == models.ProofPending {
			proof.Status = models.ProofFeedbackReceived
			return tx.Model(proof).Update("status", models.ProofFeedbackReceived).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var order models.Order
	orderNumber := ""
	if err := db.First(&order, proof.OrderID).Error; err == nil {
		orderNumber = order.OrderNumber
	}

	services.RecordAudit(models.CategoryProofs, "proof.annotate", actor, map[string]interface{}{
		"orderNumber": orderNumber,
		"title":       proof.Title,
		"version":     proof.Version,
		"type":        string(req.Type),
		"author":      author,
		"comment":     req.Comment,
	}, ip)

	return &annotation, nil
}

// ResolveAnnotation handles POST /api/v1/annotations/:annotationId/resolve.
// Resolution is one-way and idempotent: resolving an already-resolved
// annotation is a no-op success. Proof status is untouched: it reflects that
// feedback was ever given, not whether any is outstanding.
func ResolveAnnotation(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	db := config.GetDB()
	var annotation models.Annotation
	if err := db.First(&annotation, c.Param("annotationId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANNOTATION_NOT_FOUND",
				"message": "Annotation not found",
			},
		})
		return
	}

	if annotation.Resolved {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    annotation,
		})
		return
	}

	resolvedBy := actor.Name
	annotation.Resolved = true
	annotation.ResolvedBy = &resolvedBy
	if err := db.Model(&annotation).Updates(map[string]interface{}{
		"resolved":    true,
		"resolved_by": resolvedBy,
	}).Error; err != nil {
		databaseError(c, "Failed to resolve annotation")
		return
	}

	var proof models.Proof
	title := ""
	version := 0
	orderNumber := ""
	if err := db.First(&proof, annotation.ProofID).Error; err == nil {
		title = proof.Title
		version = proof.Version
		var order models.Order
		if err := db.First(&order, proof.OrderID).Error; err == nil {
			orderNumber = order.OrderNumber
		}
	}

	services.RecordAudit(models.CategoryProofs, "proof.annotation_resolve", actor, map[string]interface{}{
		"orderNumber": orderNumber,
		"title":       title,
		"version":     version,
		"resolvedBy":  resolvedBy,
		"comment":     annotation.Comment,
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    annotation,
	})
}

// findProofByToken loads a proof by its access token. The token is the
// capability: no other authentication applies on the public routes.
func findProofByToken(c *gin.Context) *models.Proof {
	token := c.Param("token")
	var proof models.Proof
	if err := config.GetDB().Preload("Annotations").Where("access_token = ?", token).First(&proof).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROOF_NOT_FOUND",
				"message": "Proof not found",
			},
		})
		return nil
	}
	return &proof
}

// GetProofByToken handles GET /api/v1/proof-review/:token
func GetProofByToken(c *gin.Context) {
	proof := findProofByToken(c)
	if proof == nil {
		return
	}

	fileURL, err := services.GetS3Service().GetPresignedURL(proof.FileURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to presign proof file URL")
		fileURL = ""
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"proof":    proof,
			"file_url": fileURL,
		},
	})
}

// AnnotateProofByToken handles POST /api/v1/proof-review/:token/annotations -
// customer feedback via the review link
func AnnotateProofByToken(c *gin.Context) {
	proof := findProofByToken(c)
	if proof == nil {
		return
	}

	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	author := req.AuthorName
	if author == "" {
		author = "Customer"
	}

	// Token holders are anonymous: the audit actor is nil and renders as System.
	annotation, err := appendAnnotation(proof, req, author, nil, c.ClientIP())
	if err != nil {
		databaseError(c, "Failed to create annotation")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    annotation,
	})
}

// ApproveProofRequest represents the request body for a proof sign-off
type ApproveProofRequest struct {
	SignedOffBy string `json:"signed_off_by" binding:"required"`
	Signature   string `json:"signature" binding:"required"`
}

// ApproveProofByToken handles POST /api/v1/proof-review/:token/approve.
// Approval is a customer decision: it is not gated on outstanding feedback,
// and it leaves unresolved annotations unresolved. Approving an approved
// proof is a no-op success.
func ApproveProofByToken(c *gin.Context) {
	proof := findProofByToken(c)
	if proof == nil {
		return
	}

	var req ApproveProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	if proof.Status == models.ProofApproved {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    proof,
		})
		return
	}

	now := time.Now().UTC()
	proof.Status = models.ProofApproved
	proof.SignedOffBy = &req.SignedOffBy
	proof.SignedOffAt = &now
	proof.Signature = &req.Signature

	err := config.GetDB().Model(proof).Updates(map[string]interface{}{
		"status":        models.ProofApproved,
		"signed_off_by": req.SignedOffBy,
		"signed_off_at": now,
		"signature":     req.Signature,
	}).Error
	if err != nil {
		databaseError(c, "Failed to approve proof")
		return
	}

	orderNumber := ""
	var order models.Order
	if err := config.GetDB().First(&order, proof.OrderID).Error; err == nil {
		orderNumber = order.OrderNumber
	}

	services.RecordAudit(models.CategoryProofs, "proof.approve", nil, map[string]interface{}{
		"orderNumber": orderNumber,
		"title":       proof.Title,
		"version":     proof.Version,
		"signedOffBy": req.SignedOffBy,
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    proof,
	})
}
