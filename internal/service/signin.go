package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"breedauth/internal/model"
	"breedauth/internal/provider"
	"breedauth/internal/repository"
	"breedauth/pkg/logger"
)

const (
	// DefaultLandingRoute 登录完成后的默认回跳路由
	DefaultLandingRoute = "/"

	// defaultAvatarURL 提供方未给出头像时使用的默认头像
	defaultAvatarURL = "https://breed-1258140596.cos.ap-shanghai.myqcloud.com/%E7%A7%8D%E8%B4%A8%E8%B5%84%E6%BA%90/tx.png"

	// recentLoginLimit 最近登录记录的返回条数
	recentLoginLimit = 10
)

// providerDisplayNames 提供方兜底显示名(后端与提供方均未给出用户名时使用)
var providerDisplayNames = map[string]string{
	model.LoginTypeQQ:     "QQ用户",
	model.LoginTypeWechat: "微信用户",
	model.LoginTypeAlipay: "支付宝用户",
}

// ProviderInfo 提供方状态(供登录页展示)
type ProviderInfo struct {
	Name            string `json:"name"`
	Embedded        bool   `json:"embedded"`
	SilentAvailable bool   `json:"silent_available"`
}

// SigninOutcome 回调处理结果
type SigninOutcome struct {
	Provider string             // 完成登录的提供方
	Result   *model.LoginResult // 后端登录响应
	Redirect string             // 登录完成后的回跳路由
}

// SigninService 第三方登录协调服务接口
// 授权分两段: BeginAuthorization生成跳转URL(由HTTP层发起302)，
// ResumeAfterCallback在回调请求上恢复流程并落地会话
type SigninService interface {
	// BeginAuthorization 开始一次登录尝试
	// 每次调用生成全新state令牌(提供方前缀+随机后缀)并短期存储，返回授权URL
	BeginAuthorization(ctx context.Context, providerName, userAgent, redirect string) (string, error)

	// ResumeAfterCallback 识别并处理提供方回调
	// 非回调URL返回(nil, nil)且无任何副作用；state令牌无论成败均一次性消费
	ResumeAfterCallback(ctx context.Context, sid string, query url.Values, clientIP, userAgent string) (*SigninOutcome, error)

	// AccountLogin 账号密码/手机验证码登录(与提供方流程共用会话落地路径)
	AccountLogin(ctx context.Context, sid string, req *model.LoginRequest, clientIP, userAgent string) (*model.LoginResult, error)

	// Logout 清除本地会话并通知后端注销凭证
	Logout(ctx context.Context, sid string) error

	// SessionByToken 按登录凭证查询会话(认证中间件使用)
	SessionByToken(ctx context.Context, token string) (*model.Session, error)

	// CurrentUser 返回当前会话的控制台用户投影
	CurrentUser(ctx context.Context, sid string) (*model.CurrentUser, error)

	// RecentLogins 返回用户最近的登录记录(会话接口使用)
	RecentLogins(ctx context.Context, userID string) ([]*model.LoginRecordResponse, error)

	// Providers 返回已注册提供方及内置浏览器判定结果
	Providers(userAgent string) []ProviderInfo
}

// signinService 第三方登录协调服务实现
type signinService struct {
	registry    *provider.Registry
	stateRepo   repository.StateTokenRepository
	sessionRepo repository.SessionRepository
	recordRepo  repository.LoginRecordRepository
	backend     BackendClient
}

// NewSigninService 创建登录协调服务实例
func NewSigninService(
	registry *provider.Registry,
	stateRepo repository.StateTokenRepository,
	sessionRepo repository.SessionRepository,
	recordRepo repository.LoginRecordRepository,
	backend BackendClient,
) SigninService {
	return &signinService{
		registry:    registry,
		stateRepo:   stateRepo,
		sessionRepo: sessionRepo,
		recordRepo:  recordRepo,
		backend:     backend,
	}
}

// BeginAuthorization 开始一次登录尝试
func (s *signinService) BeginAuthorization(ctx context.Context, providerName, userAgent, redirect string) (string, error) {
	p, err := s.registry.Get(providerName)
	if err != nil {
		return "", err
	}

	// 每次尝试都生成新令牌，不复用，降低state被重放的窗口
	state := p.StatePrefix() + uuid.New().String()
	if err := s.stateRepo.Save(ctx, &model.StateRecord{
		Provider:  p.Name(),
		Token:     state,
		CreatedAt: time.Now().Unix(),
		Redirect:  redirect,
	}); err != nil {
		return "", fmt.Errorf("failed to save state token: %w", err)
	}

	mode := model.ModeStandard
	if p.InEmbeddedBrowser(userAgent) {
		mode = model.ModeSilent
	}

	return p.AuthorizeURL(state, mode), nil
}

// ResumeAfterCallback 识别并处理提供方回调
func (s *signinService) ResumeAfterCallback(ctx context.Context, sid string, query url.Values, clientIP, userAgent string) (*SigninOutcome, error) {
	p, cb := s.registry.Detect(query)
	if p == nil {
		// 凭证或state不合法的URL一律视为非回调，不发起任何网络请求
		return nil, nil
	}

	record, err := s.stateRepo.Consume(ctx, cb.State)
	if err != nil {
		return nil, fmt.Errorf("failed to consume state token: %w", err)
	}
	if record == nil || record.Provider != cb.Provider {
		// 前缀合法但令牌不是本服务签发(或已消费/过期)，拒绝兑换
		return nil, ErrInvalidState
	}

	result, identity, err := p.Exchange(ctx, cb)
	if err != nil {
		return nil, err
	}

	session, err := s.commitSession(ctx, sid, cb.Provider, result, identity, clientIP, userAgent)
	if err != nil {
		return nil, err
	}
	logger.Info("signin completed: provider=%s user_id=%s", cb.Provider, session.UserID)

	redirect := query.Get("redirect")
	if redirect == "" {
		redirect = record.Redirect
	}
	if redirect == "" {
		redirect = DefaultLandingRoute
	}

	return &SigninOutcome{
		Provider: cb.Provider,
		Result:   result,
		Redirect: redirect,
	}, nil
}

// AccountLogin 账号密码/手机验证码登录
func (s *signinService) AccountLogin(ctx context.Context, sid string, req *model.LoginRequest, clientIP, userAgent string) (*model.LoginResult, error) {
	result, err := s.backend.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	loginType := req.Type
	if loginType == "" {
		loginType = model.LoginTypeAccount
	}
	if _, err := s.commitSession(ctx, sid, loginType, result, nil, clientIP, userAgent); err != nil {
		return nil, err
	}

	return result, nil
}

// Logout 清除本地会话并通知后端注销凭证
func (s *signinService) Logout(ctx context.Context, sid string) error {
	session, err := s.sessionRepo.Get(ctx, sid)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	// 后端注销失败不阻断本地清理
	if session.Token != "" {
		if err := s.backend.Logout(ctx, session.Token); err != nil {
			logger.Warn("backend logout failed: %v", err)
		}
	}

	return s.sessionRepo.Clear(ctx, sid)
}

// SessionByToken 按登录凭证查询会话
func (s *signinService) SessionByToken(ctx context.Context, token string) (*model.Session, error) {
	return s.sessionRepo.GetByToken(ctx, token)
}

// CurrentUser 返回当前会话的控制台用户投影
func (s *signinService) CurrentUser(ctx context.Context, sid string) (*model.CurrentUser, error) {
	session, err := s.sessionRepo.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !session.Authenticated() || session.CurrentUser == nil {
		return nil, ErrUnauthenticated
	}
	return session.CurrentUser, nil
}

// RecentLogins 返回用户最近的登录记录
func (s *signinService) RecentLogins(ctx context.Context, userID string) ([]*model.LoginRecordResponse, error) {
	records, err := s.recordRepo.GetLatestByUserID(ctx, userID, recentLoginLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load login records: %w", err)
	}

	responses := make([]*model.LoginRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, &model.LoginRecordResponse{
			ID:        record.ID,
			LoginType: record.LoginType,
			ClientIP:  record.ClientIP,
			LoginTime: record.LoginTime,
		})
	}
	return responses, nil
}

// Providers 返回已注册提供方及内置浏览器判定结果
func (s *signinService) Providers(userAgent string) []ProviderInfo {
	names := s.registry.Names()
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		p, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		embedded := p.InEmbeddedBrowser(userAgent)
		infos = append(infos, ProviderInfo{
			Name:            name,
			Embedded:        embedded,
			SilentAvailable: embedded,
		})
	}
	return infos
}

// commitSession 将登录结果落地为本地会话
// 整体替换旧会话，幂等；同一页面周期内后写者生效
// 会话写入失败意味着登录没有落地，必须作为失败上报，不能返回半成功
func (s *signinService) commitSession(ctx context.Context, sid, loginType string, result *model.LoginResult, identity *model.ExchangedIdentity, clientIP, userAgent string) (*model.Session, error) {
	session := &model.Session{
		Token:       result.Token,
		UserID:      strconv.FormatInt(result.ID, 10),
		UserRole:    result.Role,
		CurrentUser: s.buildCurrentUser(loginType, result, identity),
	}

	if err := s.sessionRepo.Save(ctx, sid, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	// 登录记录写入失败不阻断登录
	if err := s.recordRepo.Create(ctx, &model.LoginRecord{
		UserID:    session.UserID,
		Username:  result.Username,
		LoginType: loginType,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		LoginTime: time.Now(),
	}); err != nil {
		logger.Warn("failed to record login: %v", err)
	}

	return session, nil
}

// buildCurrentUser 构造控制台用户投影
// 显示名回退链: 后端用户名 -> 提供方昵称 -> 提供方兜底名
// 头像回退链: 提供方头像 -> 默认头像
func (s *signinService) buildCurrentUser(loginType string, result *model.LoginResult, identity *model.ExchangedIdentity) *model.CurrentUser {
	name := result.Username
	if name == "" && identity != nil {
		name = identity.Nickname
	}
	if name == "" {
		name = providerDisplayNames[loginType]
	}

	avatar := ""
	if identity != nil {
		avatar = identity.Avatar
	}
	if avatar == "" {
		avatar = defaultAvatarURL
	}

	access := result.Role
	if access == "" {
		access = "user"
	}

	return &model.CurrentUser{
		Name:      name,
		Avatar:    avatar,
		UserID:    strconv.FormatInt(result.ID, 10),
		Signature: "专注种植，用心培育",
		Title:     "种植专家",
		Group:     "育种平台－开发部门",
		Country:   "China",
		Access:    access,
		Geographic: &model.Geographic{
			Province: model.LabeledValue{Label: "浙江省", Key: "330000"},
			City:     model.LabeledValue{Label: "湖州市", Key: "330500"},
		},
		Address: "湖州市吴兴区",
		Phone:   "0572-12345678",
	}
}
