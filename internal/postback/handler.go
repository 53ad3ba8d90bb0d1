package postback

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"postrelay/internal/constants"
	"postrelay/internal/logger"
	"postrelay/internal/profile"
	pkgerrors "postrelay/pkg/errors"
	"postrelay/pkg/logging"
)

// Handler is the postback ingestion endpoint. It authenticates the secret,
// then hands raw fields to the pipeline. Every downstream outcome answers
// 200: the sender must never be given a reason to retry, since retries would
// only regenerate duplicates already handled internally. Richer diagnostics
// travel in the JSON body only.
type Handler struct {
	profiles profile.Repository
	pipeline *Pipeline
	logger   logger.Logger
}

func NewHandler(profiles profile.Repository, pipeline *Pipeline, log logger.Logger) *Handler {
	return &Handler{
		profiles: profiles,
		pipeline: pipeline,
		logger:   log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/integrations/keitaro/postback", h.HandlePostback)
}

type postbackResponse struct {
	OK      bool   `json:"ok"`
	Result  string `json:"result,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) HandlePostback(c *gin.Context) {
	ctx := c.Request.Context()

	secret := c.Query("secret")
	if secret == "" {
		c.JSON(http.StatusForbidden, postbackResponse{OK: false, Error: "forbidden"})
		return
	}

	prof, err := h.profiles.GetBySecret(ctx, secret)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			c.JSON(http.StatusForbidden, postbackResponse{OK: false, Error: "forbidden"})
			return
		}
		h.logger.ErrorwCtx(ctx, "Profile lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, postbackResponse{OK: false, Error: "internal error"})
		return
	}

	// Accept-but-discard keeps a paused integration from being retry-stormed.
	if !prof.Enabled {
		c.JSON(http.StatusOK, postbackResponse{OK: true, Result: "discarded"})
		return
	}

	ctx = logging.WithProfileID(ctx, prof.ID)

	fields := h.parseFields(c)
	ev := h.pipeline.Process(ctx, prof, fields)

	c.JSON(http.StatusOK, postbackResponse{
		OK:      true,
		Result:  string(ev.Outcome),
		EventID: ev.ID,
	})
}

// parseFields reads the body as form-encoded or JSON key/value fields. Only
// top-level string-convertible values are taken; a malformed body degrades to
// empty fields rather than an error.
func (h *Handler) parseFields(c *gin.Context) Fields {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxPostbackBodyBytes)

	values := make(map[string]string)
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var raw map[string]interface{}
		if err := json.NewDecoder(c.Request.Body).Decode(&raw); err == nil {
			for key, value := range raw {
				switch v := value.(type) {
				case string:
					values[key] = v
				case float64:
					values[key] = strconv.FormatFloat(v, 'f', -1, 64)
				case bool:
					values[key] = strconv.FormatBool(v)
				}
			}
		}
	} else {
		if err := c.Request.ParseForm(); err == nil {
			for key, list := range c.Request.PostForm {
				if len(list) > 0 {
					values[key] = list[0]
				}
			}
		}
	}

	return fieldsFromValues(values)
}

func fieldsFromValues(values map[string]string) Fields {
	return Fields{
		Status:            values["status"],
		TransactionID:     values["transaction_id"],
		ClickID:           values["click_id"],
		CampaignID:        values["campaign_id"],
		CampaignName:      values["campaign_name"],
		OfferName:         values["offer_name"],
		ConversionRevenue: values["conversion_revenue"],
		Payout:            values["payout"],
		Currency:          values["currency"],
		Country:           values["country"],
		Source:            values["source"],
		CreativeID:        values["creative_id"],
		LandingName:       values["landing_name"],
		SubID1:            values["sub_id_1"],
		SubID2:            values["sub_id_2"],
		SubID3:            values["sub_id_3"],
		SubID4:            values["sub_id_4"],
		SubID5:            values["sub_id_5"],
		SubID6:            values["sub_id_6"],
		SubID7:            values["sub_id_7"],
		SubID8:            values["sub_id_8"],
		SubID9:            values["sub_id_9"],
		SubID10:           values["sub_id_10"],
	}
}
