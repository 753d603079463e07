package service

import (
	"context"
	"errors"
	"sync"
	"time"

	usermodel "DriveSync/module/user/model"
	jwtlib "DriveSync/tools/security"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Resolver is the identity collaborator consumed by the gateway. A nil
// user with a nil error means "does not resolve".
type Resolver interface {
	ResolveUser(ctx context.Context, userID string) (*usermodel.User, error)
	ResolveUserByExternalID(ctx context.Context, externalID string) (*usermodel.User, error)
}

// ===== mongo-backed resolver =====

type MongoResolver struct {
	db *mongo.Database
}

func NewMongoResolver(db *mongo.Database) *MongoResolver {
	return &MongoResolver{db: db}
}

func (r *MongoResolver) coll() *mongo.Collection {
	return r.db.Collection((&usermodel.User{}).GetTableName())
}

func (r *MongoResolver) ResolveUser(ctx context.Context, userID string) (*usermodel.User, error) {
	return r.findOne(ctx, bson.M{usermodel.UserFieldUserID: userID})
}

func (r *MongoResolver) ResolveUserByExternalID(ctx context.Context, externalID string) (*usermodel.User, error) {
	return r.findOne(ctx, bson.M{usermodel.UserFieldExternalID: externalID})
}

func (r *MongoResolver) findOne(ctx context.Context, filter bson.M) (*usermodel.User, error) {
	var u usermodel.User
	err := r.coll().FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ===== in-memory resolver (tests, local runs) =====

type MemoryResolver struct {
	mu    sync.RWMutex
	byID  map[string]*usermodel.User
	byExt map[string]*usermodel.User
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{
		byID:  make(map[string]*usermodel.User),
		byExt: make(map[string]*usermodel.User),
	}
}

func (r *MemoryResolver) Put(u *usermodel.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.UserID] = u
	if u.ExternalID != "" {
		r.byExt[u.ExternalID] = u
	}
}

func (r *MemoryResolver) ResolveUser(_ context.Context, userID string) (*usermodel.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[userID], nil
}

func (r *MemoryResolver) ResolveUserByExternalID(_ context.Context, externalID string) (*usermodel.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[externalID], nil
}

// ===== login =====

// LoginResult is what POST /login hands back to a client that then opens
// the websocket and AUTHs with the token.
type LoginResult struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	TokenHash string    `json:"token_hash"`
	ExpireAt  time.Time `json:"expire_at"`
}

// Login issues a token for an already-known user id.
func Login(ctx context.Context, opts jwtlib.Options, resolver Resolver, userID string) (*LoginResult, error) {
	u, err := resolver.ResolveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("unknown user")
	}
	token, hash, exp, err := jwtlib.Generate(opts, u.UserID, nil)
	if err != nil {
		return nil, err
	}
	return &LoginResult{UserID: u.UserID, Token: token, TokenHash: hash, ExpireAt: exp}, nil
}
