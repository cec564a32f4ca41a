package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

var (
	errMissingToken  = httpErr{Error: "As credenciais de autenticação não foram fornecidas."}
	errForbidden     = httpErr{Error: "Você não tem permissão para executar essa ação."}
	errNotFound      = httpErr{Error: "Não encontrado."}
	errInvalidToken  = httpErr{Error: "O token informado não é válido para qualquer tipo de token"}
	errInvalidCreds  = httpErr{Error: "Nenhuma conta ativa encontrada com as credenciais fornecidas"}
	errPerfilInativo = httpErr{Error: "Perfil inativo."}

	testPassword = "Tr0ub4dor&3x"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// run serves tt and checks the response code, and the response data when tt.wantData is set.
func run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	if tt.wantData != nil {
		checkCodeAndData(t, tt, rec)
	} else if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	return rec
}

func getTokens(t *testing.T, p perfil.Perfil) TokenPair {
	tokens, err := GenerateTokenPair(conf, p)
	if err != nil {
		t.Fatalf("getTokens(): %v", err)
	}
	return tokens
}

func getToken(t *testing.T, p perfil.Perfil) string {
	return getTokens(t, p).Access
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshallList(): %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func perfilList(ps ...perfil.Perfil) []interface{} {
	list := make([]interface{}, 0, len(ps))
	for _, p := range ps {
		list = append(list, NewPerfilResponse(p))
	}
	return list
}
