package v1

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"breedauth/internal/model"
	"breedauth/internal/service"
	"breedauth/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// newSessionTestRouter 构建会话路由，injected为预置进上下文的会话
func newSessionTestRouter(svc service.SigninService, injected *model.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(svc)
	engine := gin.New()
	if injected != nil {
		engine.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeySession, injected)
		})
	}
	engine.GET("/session/current", handler.CurrentUser)
	engine.GET("/session/records", handler.Records)
	return engine
}

func TestSessionCurrentUser(t *testing.T) {
	engine := newSessionTestRouter(&fakeSigninService{}, &model.Session{
		Token: "tok1",
		CurrentUser: &model.CurrentUser{
			Name:   "吴兴用户",
			Access: "user",
		},
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/current", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "吴兴用户")
	assert.Contains(t, w.Body.String(), `"access":"user"`)
}

func TestSessionCurrentUserWithoutSession(t *testing.T) {
	engine := newSessionTestRouter(&fakeSigninService{}, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/current", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRecords(t *testing.T) {
	svc := &fakeSigninService{records: []*model.LoginRecordResponse{
		{ID: "r1", LoginType: "wechat", ClientIP: "1.2.3.4", LoginTime: time.Now()},
	}}
	engine := newSessionTestRouter(svc, &model.Session{Token: "tok1", UserID: "7"})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/records", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"login_type":"wechat"`)
	assert.Contains(t, w.Body.String(), `"client_ip":"1.2.3.4"`)
}

func TestSessionRecordsWithoutSession(t *testing.T) {
	engine := newSessionTestRouter(&fakeSigninService{}, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/records", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRecordsLookupError(t *testing.T) {
	svc := &fakeSigninService{recordsErr: errors.New("db down")}
	engine := newSessionTestRouter(svc, &model.Session{Token: "tok1", UserID: "7"})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session/records", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
