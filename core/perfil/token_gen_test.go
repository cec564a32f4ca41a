package perfil

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	tg := tokenGenerator{secretKey: "secret", timeout: 3 * 24 * time.Hour}

	now := time.Now()
	p := Perfil{
		ID:         "0b8f3c4e-7c52-4d7b-9d55-0b6f3f3f7c11",
		Codigo:     "MAT.2025.1",
		Nome:       "T",
		Tipo:       TipoProfessor,
		Email:      "t@test.test",
		Ativo:      true,
		DateJoined: now,
		LastLogin:  now,
	}
	_ = p.SetPassword("pwd")

	validToken, err := tg.makeToken(p)
	if err != nil {
		t.Fatalf("makeToken(): %v", err)
	}

	// generate an expired token
	dayLate := tg.timeout + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := tg.makeToken(p)
	NowFunc = time.Now // reset
	if err != nil {
		t.Fatalf("makeToken(): %v", err)
	}

	// a new login invalidates previous tokens
	loggedIn := p
	loggedIn.LastLogin = now.Add(time.Minute)

	// so does a password change
	pwdChanged := p
	_ = pwdChanged.SetPassword("other")

	tests := []struct {
		name    string
		p       Perfil
		token   string
		wantErr error
	}{
		{name: "no token", p: p, wantErr: errInvalidToken},
		{name: "invalid parts len", p: p, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", p: p, token: "hahaha-sigsig", wantErr: errInvalidToken},
		{name: "invalid timestamp", p: p, token: "NRXWY-sigsig", wantErr: errInvalidToken},
		{name: "invalid token", p: p, token: "HE4TS-sigsig", wantErr: errInvalidToken},
		{name: "expired token", p: p, token: expiredToken, wantErr: errTokenExpired},
		{name: "new login", p: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "password changed", p: pwdChanged, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", p: p, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tg.verifyToken(tt.p, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	p := Perfil{ID: "0b8f3c4e-7c52-4d7b-9d55-0b6f3f3f7c11"}
	id, err := decodeUID(EncodeUID(p))
	if err != nil {
		t.Fatalf("decodeUID(): %v", err)
	}
	if id != p.ID {
		t.Errorf("decodeUID() = %v; want %v", id, p.ID)
	}
	if _, err := decodeUID("%%%"); err == nil {
		t.Error("decodeUID() should fail on invalid input")
	}
}
