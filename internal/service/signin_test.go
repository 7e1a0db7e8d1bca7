package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"breedauth/internal/model"
	"breedauth/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStateRepo 内存版state令牌仓储
type fakeStateRepo struct {
	saved   []*model.StateRecord
	records map[string]*model.StateRecord
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{records: make(map[string]*model.StateRecord)}
}

func (r *fakeStateRepo) Save(_ context.Context, record *model.StateRecord) error {
	r.records[record.Token] = record
	r.saved = append(r.saved, record)
	return nil
}

func (r *fakeStateRepo) Consume(_ context.Context, token string) (*model.StateRecord, error) {
	record, ok := r.records[token]
	if !ok {
		return nil, nil
	}
	delete(r.records, token)
	return record, nil
}

// fakeSessionRepo 内存版会话仓储
type fakeSessionRepo struct {
	sessions map[string]*model.Session
	byToken  map[string]string
	saves    int
	saveErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]*model.Session),
		byToken:  make(map[string]string),
	}
}

func (r *fakeSessionRepo) Save(_ context.Context, sid string, session *model.Session) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if old, ok := r.sessions[sid]; ok && old.Token != session.Token {
		delete(r.byToken, old.Token)
	}
	r.sessions[sid] = session
	r.byToken[session.Token] = sid
	r.saves++
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, sid string) (*model.Session, error) {
	return r.sessions[sid], nil
}

func (r *fakeSessionRepo) GetByToken(_ context.Context, token string) (*model.Session, error) {
	sid, ok := r.byToken[token]
	if !ok {
		return nil, nil
	}
	return r.sessions[sid], nil
}

func (r *fakeSessionRepo) Clear(_ context.Context, sid string) error {
	if old, ok := r.sessions[sid]; ok {
		delete(r.byToken, old.Token)
	}
	delete(r.sessions, sid)
	return nil
}

// fakeRecordRepo 内存版登录记录仓储
type fakeRecordRepo struct {
	created []*model.LoginRecord
}

func (r *fakeRecordRepo) Create(_ context.Context, record *model.LoginRecord) error {
	r.created = append(r.created, record)
	return nil
}

func (r *fakeRecordRepo) GetLatestByUserID(_ context.Context, userID string, limit int) ([]*model.LoginRecord, error) {
	var out []*model.LoginRecord
	for i := len(r.created) - 1; i >= 0 && len(out) < limit; i-- {
		if r.created[i].UserID == userID {
			out = append(out, r.created[i])
		}
	}
	return out, nil
}

// signinFixture 完整的服务测试装置: 真实提供方+真实后端客户端+内存仓储
type signinFixture struct {
	svc      SigninService
	states   *fakeStateRepo
	sessions *fakeSessionRepo
	records  *fakeRecordRepo
	hits     atomic.Int32
}

// newSigninFixture 构建测试装置，backendBody为后端登录接口统一返回的JSON
func newSigninFixture(t *testing.T, backendBody string) *signinFixture {
	t.Helper()
	f := &signinFixture{
		states:   newFakeStateRepo(),
		sessions: newFakeSessionRepo(),
		records:  &fakeRecordRepo{},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if r.URL.Path == backendLogoutPath {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(backendBody))
	}))
	t.Cleanup(server.Close)

	backend := NewBackendClient(server.URL, server.Client())

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(provider.NewQQ(provider.QQConfig{AppID: "qq-app", AppKey: "qq-key"}, server.Client(), backend)))
	require.NoError(t, registry.Register(provider.NewWechat(provider.WechatConfig{AppID: "wx-app", RedirectURI: "https://dash.example.com/signin/callback"}, backend)))
	require.NoError(t, registry.Register(provider.NewAlipay(provider.AlipayConfig{AppID: "ali-app"}, backend)))

	f.svc = NewSigninService(registry, f.states, f.sessions, f.records, backend)
	return f
}

const backendOKBody = `{"token":"tok1","id":7,"username":"吴兴用户","role":"user","status":"ok"}`

func TestBeginAuthorizationGeneratesFreshStatePerAttempt(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	url1, err := f.svc.BeginAuthorization(context.Background(), "wechat", "", "")
	require.NoError(t, err)
	url2, err := f.svc.BeginAuthorization(context.Background(), "wechat", "", "")
	require.NoError(t, err)

	// 每次尝试都是全新令牌
	require.Len(t, f.states.saved, 2)
	assert.NotEqual(t, f.states.saved[0].Token, f.states.saved[1].Token)
	assert.NotEqual(t, url1, url2)

	for _, record := range f.states.saved {
		assert.Equal(t, "wechat", record.Provider)
		assert.True(t, strings.HasPrefix(record.Token, provider.WechatStatePrefix))
	}
}

func TestBeginAuthorizationUnknownProvider(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	_, err := f.svc.BeginAuthorization(context.Background(), "github", "", "")
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
	assert.Empty(t, f.states.saved)
}

func TestBeginAuthorizationSilentModeInWechatBrowser(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	raw, err := f.svc.BeginAuthorization(context.Background(), "wechat", "Mozilla/5.0 MicroMessenger/8.0.40", "")
	require.NoError(t, err)

	assert.Contains(t, raw, "/connect/oauth2/authorize")
	assert.Contains(t, raw, "scope=snsapi_base")
}

func TestBeginAuthorizationStoresRedirect(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	_, err := f.svc.BeginAuthorization(context.Background(), "alipay", "", "/breeding/records")
	require.NoError(t, err)

	require.Len(t, f.states.saved, 1)
	assert.Equal(t, "/breeding/records", f.states.saved[0].Redirect)
}

func TestResumeAfterCallbackIgnoresNonCallbackQuery(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	for _, rawQuery := range []string{"", "foo=bar", "code=abc", "code=abc&state=random"} {
		query, err := url.ParseQuery(rawQuery)
		require.NoError(t, err)

		outcome, err := f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "1.2.3.4", "ua")
		assert.NoError(t, err)
		assert.Nil(t, outcome)
	}

	// 非回调URL不产生任何网络请求和存储写入
	assert.Zero(t, f.hits.Load())
	assert.Empty(t, f.sessions.sessions)
}

func TestResumeAfterCallbackRejectsForgedState(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	// 前缀合法但令牌不是本服务签发
	query, err := url.ParseQuery("code=abc&state=wechat_login_hacked")
	require.NoError(t, err)

	_, err = f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "1.2.3.4", "ua")
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Zero(t, f.hits.Load())
	assert.Empty(t, f.sessions.sessions)
}

func TestResumeAfterCallbackRejectsProviderMismatch(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	// 令牌存在但登记的提供方与回调形状不符
	require.NoError(t, f.states.Save(context.Background(), &model.StateRecord{
		Provider: "qq",
		Token:    "wechat_login_stolen",
	}))

	query, err := url.ParseQuery("code=abc&state=wechat_login_stolen")
	require.NoError(t, err)

	_, err = f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "1.2.3.4", "ua")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, f.hits.Load())
}

func TestResumeAfterCallbackWechatEndToEnd(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	authorizeURL, err := f.svc.BeginAuthorization(context.Background(), "wechat", "", "")
	require.NoError(t, err)

	parsed, err := url.Parse(authorizeURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	query := url.Values{"code": {"abc"}, "state": {state}}
	outcome, err := f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "1.2.3.4", "ua")
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, "wechat", outcome.Provider)
	assert.Equal(t, DefaultLandingRoute, outcome.Redirect)
	assert.Equal(t, int32(1), f.hits.Load())

	// 会话整体落地
	session := f.sessions.sessions["sid1"]
	require.NotNil(t, session)
	assert.Equal(t, "tok1", session.Token)
	assert.Equal(t, "7", session.UserID)
	assert.Equal(t, "user", session.UserRole)
	require.NotNil(t, session.CurrentUser)
	assert.Equal(t, "吴兴用户", session.CurrentUser.Name)

	// 登录记录同步写入
	require.Len(t, f.records.created, 1)
	assert.Equal(t, "wechat", f.records.created[0].LoginType)
	assert.Equal(t, "1.2.3.4", f.records.created[0].ClientIP)
}

func TestResumeAfterCallbackConsumesStateOnce(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	_, err := f.svc.BeginAuthorization(context.Background(), "wechat", "", "")
	require.NoError(t, err)
	state := f.states.saved[0].Token

	query := url.Values{"code": {"abc"}, "state": {state}}
	_, err = f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "", "")
	require.NoError(t, err)

	// 刷新回调页: 令牌已消费，不再触发兑换
	_, err = f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "", "")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestResumeAfterCallbackRedirectPreference(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	// 发起时登记的回跳路由
	_, err := f.svc.BeginAuthorization(context.Background(), "wechat", "", "/breeding/records")
	require.NoError(t, err)
	state := f.states.saved[0].Token

	query := url.Values{"code": {"abc"}, "state": {state}}
	outcome, err := f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "", "")
	require.NoError(t, err)
	assert.Equal(t, "/breeding/records", outcome.Redirect)

	// 回调URL上的redirect参数优先
	_, err = f.svc.BeginAuthorization(context.Background(), "wechat", "", "/breeding/records")
	require.NoError(t, err)
	state = f.states.saved[1].Token

	query = url.Values{"code": {"abc"}, "state": {state}, "redirect": {"/seeds"}}
	outcome, err = f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "", "")
	require.NoError(t, err)
	assert.Equal(t, "/seeds", outcome.Redirect)
}

func TestResumeAfterCallbackBackendRejection(t *testing.T) {
	f := newSigninFixture(t, `{"status":"error","message":"账号已停用"}`)

	_, err := f.svc.BeginAuthorization(context.Background(), "alipay", "", "")
	require.NoError(t, err)
	state := f.states.saved[0].Token

	query := url.Values{"auth_code": {"abc"}, "state": {state}}
	_, err = f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "", "")
	require.ErrorIs(t, err, ErrLoginRejected)
	assert.Contains(t, err.Error(), "账号已停用")

	// 失败不产生会话，但令牌已消费
	assert.Empty(t, f.sessions.sessions)
	assert.Empty(t, f.states.records)
}

func TestAccountLoginCommitsSession(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	result, err := f.svc.AccountLogin(context.Background(), "sid1", &model.LoginRequest{
		Username: "admin",
		Password: "pass",
		Type:     model.LoginTypeAccount,
	}, "1.2.3.4", "ua")
	require.NoError(t, err)
	assert.Equal(t, "tok1", result.Token)

	session := f.sessions.sessions["sid1"]
	require.NotNil(t, session)
	assert.Equal(t, "tok1", session.Token)
	require.Len(t, f.records.created, 1)
	assert.Equal(t, model.LoginTypeAccount, f.records.created[0].LoginType)
}

func TestResumeAfterCallbackFailsWhenSessionPersistFails(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)
	f.sessions.saveErr = errors.New("redis down")

	_, err := f.svc.BeginAuthorization(context.Background(), "wechat", "", "")
	require.NoError(t, err)
	state := f.states.saved[0].Token

	// 会话没有落地就不能宣告成功，否则Cookie里有凭证但后续请求全部401
	query := url.Values{"code": {"abc"}, "state": {state}}
	outcome, err := f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "", "")
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.Empty(t, f.sessions.sessions)
	assert.Empty(t, f.records.created)
}

func TestAccountLoginFailsWhenSessionPersistFails(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)
	f.sessions.saveErr = errors.New("redis down")

	_, err := f.svc.AccountLogin(context.Background(), "sid1", &model.LoginRequest{Username: "admin"}, "", "")
	require.Error(t, err)
	assert.Empty(t, f.sessions.sessions)
}

func TestRecentLogins(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	_, err := f.svc.AccountLogin(context.Background(), "sid1", &model.LoginRequest{Username: "admin"}, "1.2.3.4", "ua")
	require.NoError(t, err)

	records, err := f.svc.RecentLogins(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.LoginTypeAccount, records[0].LoginType)
	assert.Equal(t, "1.2.3.4", records[0].ClientIP)

	// 其他用户查不到
	none, err := f.svc.RecentLogins(context.Background(), "8")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCommitSessionIsIdempotent(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	req := &model.LoginRequest{Username: "admin", Type: model.LoginTypeAccount}
	_, err := f.svc.AccountLogin(context.Background(), "sid1", req, "", "")
	require.NoError(t, err)
	first := *f.sessions.sessions["sid1"]

	// 重复登录落地同一份会话，不累积旧凭证索引
	_, err = f.svc.AccountLogin(context.Background(), "sid1", req, "", "")
	require.NoError(t, err)
	second := f.sessions.sessions["sid1"]

	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, first.UserRole, second.UserRole)
	assert.Equal(t, 2, f.sessions.saves)
	assert.Len(t, f.sessions.byToken, 1)
}

func TestCurrentUserFallbacksWhenBackendOmitsProfile(t *testing.T) {
	// 后端只给token和id，用户名/角色/头像全部走回退链
	f := newSigninFixture(t, `{"token":"tok1","id":7}`)

	_, err := f.svc.BeginAuthorization(context.Background(), "wechat", "", "")
	require.NoError(t, err)
	state := f.states.saved[0].Token

	query := url.Values{"code": {"abc"}, "state": {state}}
	_, err = f.svc.ResumeAfterCallback(context.Background(), "sid1", query, "", "")
	require.NoError(t, err)

	user, err := f.svc.CurrentUser(context.Background(), "sid1")
	require.NoError(t, err)
	assert.Equal(t, "微信用户", user.Name)
	assert.Equal(t, "user", user.Access)
	assert.Equal(t, defaultAvatarURL, user.Avatar)
	assert.Equal(t, "7", user.UserID)
}

func TestCurrentUserUnauthenticated(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	_, err := f.svc.CurrentUser(context.Background(), "sid-without-session")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionByToken(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	_, err := f.svc.AccountLogin(context.Background(), "sid1", &model.LoginRequest{Username: "admin"}, "", "")
	require.NoError(t, err)

	session, err := f.svc.SessionByToken(context.Background(), "tok1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "7", session.UserID)

	missing, err := f.svc.SessionByToken(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLogoutClearsSessionAndNotifiesBackend(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	_, err := f.svc.AccountLogin(context.Background(), "sid1", &model.LoginRequest{Username: "admin"}, "", "")
	require.NoError(t, err)
	hitsAfterLogin := f.hits.Load()

	require.NoError(t, f.svc.Logout(context.Background(), "sid1"))
	assert.Empty(t, f.sessions.sessions)
	// 登出通知了后端
	assert.Equal(t, hitsAfterLogin+1, f.hits.Load())

	// 无会话时登出是幂等的空操作
	require.NoError(t, f.svc.Logout(context.Background(), "sid1"))
	assert.Equal(t, hitsAfterLogin+1, f.hits.Load())
}

func TestProvidersReportsEmbeddedBrowser(t *testing.T) {
	f := newSigninFixture(t, backendOKBody)

	infos := f.svc.Providers("Mozilla/5.0 MicroMessenger/8.0.40")
	require.Len(t, infos, 3)

	byName := make(map[string]ProviderInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.True(t, byName["wechat"].Embedded)
	assert.True(t, byName["wechat"].SilentAvailable)
	assert.False(t, byName["qq"].Embedded)
	assert.False(t, byName["alipay"].Embedded)
}
