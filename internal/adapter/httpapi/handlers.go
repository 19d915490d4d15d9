package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"nimli/internal/domain"
	"nimli/internal/usecase"
)

// DefaultLimit applies when a list request carries no limit.
const DefaultLimit = 20

type tagIDsBody struct {
	TagIDs []string `json:"tagIds"`
}

type creatorTagSearchBody struct {
	TagIDs []string `json:"tagIds"`
	Offset int      `json:"offset"`
	Limit  *int     `json:"limit"`
}

type favoriteBody struct {
	CreatorID string `json:"creatorId" binding:"required"`
}

type historyBody struct {
	Query string `json:"query" binding:"required"`
}

type sendCodeBody struct {
	PhoneNumber string `json:"phoneNumber"`
}

type verifyCodeBody struct {
	VerificationID string `json:"verificationId"`
	Code           string `json:"code"`
}

type tagApplicationBody struct {
	CreatorID       string                 `json:"creatorId"`
	TagName         string                 `json:"tagName"`
	ApplicationType domain.ApplicationType `json:"applicationType" binding:"required,oneof=add remove"`
	Reason          string                 `json:"reason"`
}

type correctionBody struct {
	CreatorID    string                  `json:"creatorId"`
	Items        []domain.CorrectionItem `json:"items"`
	Reason       string                  `json:"reason"`
	ReferenceURL string                  `json:"referenceUrl"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// intQuery reads an integer query parameter, def when absent.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer", err)
		return 0, false
	}
	return n, true
}

func page(c *gin.Context) (usecase.PageRequest, bool) {
	offset, good := intQuery(c, "offset", 0)
	if !good {
		return usecase.PageRequest{}, false
	}
	limit, good := intQuery(c, "limit", DefaultLimit)
	if !good {
		return usecase.PageRequest{}, false
	}
	return usecase.PageRequest{Offset: offset, Limit: limit}, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fail(c, err)
			return false
		}
		badRequest(c, "malformed request body", err)
		return false
	}
	return true
}

func (s *server) popularTags(c *gin.Context) {
	limit, good := intQuery(c, "limit", DefaultLimit)
	if !good {
		return
	}
	tags, err := s.svc.Catalog.GetPopularTags(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, tags)
}

func (s *server) searchTags(c *gin.Context) {
	p, good := page(c)
	if !good {
		return
	}
	res, err := s.svc.Catalog.SearchTagsByName(c.Request.Context(), usecase.TagNameSearch{
		And:         c.Query("and"),
		Or:          c.Query("or"),
		PageRequest: p,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *server) tagsByIDs(c *gin.Context) {
	var body tagIDsBody
	if !bind(c, &body) {
		return
	}
	tags, err := s.svc.Catalog.GetTagListByIDs(c.Request.Context(), body.TagIDs)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, tags)
}

func (s *server) popularCreators(c *gin.Context) {
	limit, good := intQuery(c, "limit", DefaultLimit)
	if !good {
		return
	}
	creators, err := s.svc.Catalog.GetPopularCreators(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, creators)
}

func (s *server) searchCreatorsByName(c *gin.Context) {
	p, good := page(c)
	if !good {
		return
	}
	res, err := s.svc.Catalog.SearchCreatorsByName(c.Request.Context(), usecase.CreatorNameSearch{
		Query:       c.Query("q"),
		PageRequest: p,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *server) searchCreatorsByTags(c *gin.Context) {
	var body creatorTagSearchBody
	if !bind(c, &body) {
		return
	}
	limit := DefaultLimit
	if body.Limit != nil {
		limit = *body.Limit
	}
	res, err := s.svc.Catalog.SearchCreatorsByTags(c.Request.Context(), usecase.CreatorTagSearch{
		TagIDs:      body.TagIDs,
		PageRequest: usecase.PageRequest{Offset: body.Offset, Limit: limit},
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (s *server) creatorDetail(c *gin.Context) {
	d, err := s.svc.Catalog.GetCreatorDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, d)
}

func (s *server) sendCode(c *gin.Context) {
	var body sendCodeBody
	if !bind(c, &body) {
		return
	}
	sess, err := s.svc.Auth.SendPhoneVerification(c.Request.Context(), body.PhoneNumber)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"verificationId":     sess.VerificationID,
		"phoneNumber":        sess.PhoneNumber,
		"resendAfterSeconds": int(sess.ResendAfter / time.Second),
	})
}

func (s *server) verifyCode(c *gin.Context) {
	var body verifyCodeBody
	if !bind(c, &body) {
		return
	}
	uid, err := s.svc.Auth.VerifyPhoneCode(c.Request.Context(), body.VerificationID, body.Code)
	if err != nil {
		fail(c, err)
		return
	}
	tok, exp, err := s.sessions.Issue(uid)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"userId": uid, "token": tok, "expiresAt": exp.UTC()})
}

func (s *server) listFavorites(c *gin.Context) {
	list, err := s.svc.Favorites.GetFavoriteCreators(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (s *server) addFavorite(c *gin.Context) {
	var body favoriteBody
	if !bind(c, &body) {
		return
	}
	if err := s.svc.Favorites.AddFavoriteCreator(c.Request.Context(), userID(c), body.CreatorID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) favoriteStatus(c *gin.Context) {
	fav, err := s.svc.Favorites.CheckFavoriteStatus(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"creatorId": c.Param("id"), "favorite": fav})
}

func (s *server) removeFavorite(c *gin.Context) {
	if err := s.svc.Favorites.RemoveFavoriteCreator(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) listHistory(c *gin.Context) {
	qs, err := s.svc.History.GetSearchHistory(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, qs)
}

func (s *server) saveHistory(c *gin.Context) {
	var body historyBody
	if !bind(c, &body) {
		return
	}
	if err := s.svc.History.SaveSearchHistory(c.Request.Context(), userID(c), body.Query); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) clearHistory(c *gin.Context) {
	if err := s.svc.History.ClearSearchHistory(c.Request.Context(), userID(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) submitTagApplication(c *gin.Context) {
	var body tagApplicationBody
	if !bind(c, &body) {
		return
	}
	app, err := s.svc.Submissions.SubmitTagApplication(c.Request.Context(), usecase.TagApplicationInput{
		CreatorID:       body.CreatorID,
		TagName:         body.TagName,
		ApplicationType: body.ApplicationType,
		Reason:          body.Reason,
		RequestedBy:     userID(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, app)
}

func (s *server) submitCorrection(c *gin.Context) {
	var body correctionBody
	if !bind(c, &body) {
		return
	}
	req, err := s.svc.Submissions.SubmitCorrectionRequest(c.Request.Context(), usecase.CorrectionInput{
		CreatorID:    body.CreatorID,
		Items:        body.Items,
		Reason:       body.Reason,
		ReferenceURL: body.ReferenceURL,
		RequestedBy:  userID(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, req)
}
