package stubnode

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/distordia/walletcore/pkg/nexus"
)

const nativeToken = "NXS"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	PIN      string `json:"pin"`
}

type sessionRequest struct {
	Session string `json:"session"`
}

type pinSessionRequest struct {
	PIN     string `json:"pin"`
	Session string `json:"session"`
}

func (server *Server) handleCreateProfile(ctx *gin.Context) {
	var request credentialsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}
	if request.Username == "" || request.Password == "" || request.PIN == "" {
		respondError(ctx, http.StatusBadRequest, -11, "Missing credentials")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	if _, exists := server.profiles[request.Username]; exists {
		respondError(ctx, http.StatusConflict, -64, "Username already taken")
		return
	}

	profile := &profileState{
		username:     request.Username,
		password:     request.Password,
		pin:          request.PIN,
		genesis:      newAddress(),
		createdAt:    server.now(),
		accounts:     map[string]*accountState{},
		transactions: map[string][]nexus.Transaction{},
	}
	defaultAccount := &accountState{
		owner:   profile,
		name:    "default",
		address: newAddress(),
		token:   nativeToken,
		balance: server.initialBalance,
	}
	profile.accounts[defaultAccount.name] = defaultAccount
	server.profiles[profile.username] = profile
	server.addresses[defaultAccount.address] = defaultAccount

	server.logger.Info("profile created", zap.String("username", profile.username))
	respondResult(ctx, nexus.ProfileResult{TxID: newTxID(), Genesis: profile.genesis})
}

func (server *Server) handleCreateSession(ctx *gin.Context) {
	var request credentialsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	profile, exists := server.profiles[request.Username]
	if !exists || profile.password != request.Password || profile.pin != request.PIN {
		respondError(ctx, http.StatusUnauthorized, -139, "Invalid credentials")
		return
	}

	token, err := server.issueToken(profile.genesis, profile.username)
	if err != nil {
		respondError(ctx, http.StatusInternalServerError, -1, "Session issuance failed")
		return
	}
	server.sessions[token] = &sessionState{
		genesis:  profile.genesis,
		username: profile.username,
		unlocked: false,
		accessed: server.now(),
	}
	respondResult(ctx, nexus.SessionResult{Session: token, Genesis: profile.genesis})
}

func (server *Server) handleTerminateSession(ctx *gin.Context) {
	var request sessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	if _, _, err := server.resolveSession(request.Session); err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	delete(server.sessions, request.Session)
	respondResult(ctx, gin.H{"success": true})
}

func (server *Server) handleUnlockSession(ctx *gin.Context) {
	server.setSessionLock(ctx, true)
}

func (server *Server) handleLockSession(ctx *gin.Context) {
	server.setSessionLock(ctx, false)
}

func (server *Server) setSessionLock(ctx *gin.Context, unlocked bool) {
	var request pinSessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	session, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	if profile.pin != request.PIN {
		respondError(ctx, http.StatusUnauthorized, -139, "Incorrect PIN")
		return
	}
	session.unlocked = unlocked
	respondResult(ctx, gin.H{"success": true})
}

func (server *Server) handleSessionStatus(ctx *gin.Context) {
	var request sessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	session, _, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	var status nexus.SessionStatus
	status.Genesis = session.genesis
	status.Accessed = session.accessed.Unix()
	status.Unlocked.Transactions = session.unlocked
	status.Unlocked.Notifications = session.unlocked
	respondResult(ctx, status)
}

func (server *Server) handleGetProfile(ctx *gin.Context) {
	var request sessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	_, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	respondResult(ctx, nexus.Profile{
		Genesis:   profile.genesis,
		Owner:     profile.username,
		CreatedAt: profile.createdAt.Unix(),
	})
}

func (server *Server) handleGetAccount(ctx *gin.Context) {
	var request struct {
		Name    string `json:"name"`
		Session string `json:"session"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	_, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	account, exists := profile.accounts[request.Name]
	if !exists {
		respondError(ctx, http.StatusNotFound, -13, "Account not found")
		return
	}
	respondResult(ctx, profile.view(account))
}

func (server *Server) handleListAccounts(ctx *gin.Context) {
	var request sessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	_, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	accounts := make([]nexus.Account, 0, len(profile.accounts))
	for _, account := range profile.accounts {
		accounts = append(accounts, profile.view(account))
	}
	respondResult(ctx, accounts)
}

func (server *Server) handleGetBalances(ctx *gin.Context) {
	var request sessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	_, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	totals := map[string]decimal.Decimal{}
	for _, account := range profile.accounts {
		totals[account.token] = totals[account.token].Add(account.balance)
	}
	balances := make([]nexus.TokenBalance, 0, len(totals))
	for token, available := range totals {
		balances = append(balances, nexus.TokenBalance{Token: token, Available: available})
	}
	respondResult(ctx, balances)
}

func (server *Server) handleCreateAccount(ctx *gin.Context) {
	var request struct {
		Name    string `json:"name"`
		Token   string `json:"token"`
		PIN     string `json:"pin"`
		Session string `json:"session"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	session, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	if !session.unlocked || profile.pin != request.PIN {
		respondError(ctx, http.StatusUnauthorized, -139, "Session is locked")
		return
	}
	name := request.Name
	if name == "" {
		name = newAddress()
	}
	if _, exists := profile.accounts[name]; exists {
		respondError(ctx, http.StatusConflict, -64, "Account name already in use")
		return
	}
	token := request.Token
	if token == "" || token == "0" {
		token = nativeToken
	}
	account := &accountState{
		owner:   profile,
		name:    name,
		address: newAddress(),
		token:   token,
		balance: decimal.Zero,
	}
	profile.accounts[name] = account
	server.addresses[account.address] = account
	respondResult(ctx, nexus.CreateAccountResult{TxID: newTxID(), Address: account.address})
}

func (server *Server) handleDebitAccount(ctx *gin.Context) {
	var request struct {
		From      string          `json:"from"`
		To        string          `json:"to"`
		Amount    decimal.Decimal `json:"amount"`
		PIN       string          `json:"pin"`
		Reference string          `json:"reference"`
		Session   string          `json:"session"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	session, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	if !session.unlocked || profile.pin != request.PIN {
		respondError(ctx, http.StatusUnauthorized, -139, "Session is locked")
		return
	}
	source, exists := profile.accounts[request.From]
	if !exists {
		respondError(ctx, http.StatusNotFound, -13, "Account not found")
		return
	}
	if request.Amount.Sign() <= 0 {
		respondError(ctx, http.StatusBadRequest, -63, "Invalid amount")
		return
	}
	if source.balance.LessThan(request.Amount) {
		respondError(ctx, http.StatusBadRequest, -69, "Insufficient funds")
		return
	}

	txid := newTxID()
	timestamp := server.now().Unix()
	source.balance = source.balance.Sub(request.Amount)
	profile.recordTransaction(source.name, nexus.Transaction{
		TxID:      txid,
		Type:      "DEBIT",
		Timestamp: timestamp,
		Amount:    request.Amount.Neg(),
		From:      source.address,
		To:        request.To,
		Reference: request.Reference,
	})

	// Settle instantly when the recipient address belongs to a known account.
	if destination, known := server.addresses[request.To]; known {
		destination.balance = destination.balance.Add(request.Amount)
		destination.owner.recordTransaction(destination.name, nexus.Transaction{
			TxID:      txid,
			Type:      "CREDIT",
			Timestamp: timestamp,
			Amount:    request.Amount,
			From:      source.address,
			To:        destination.address,
			Reference: request.Reference,
		})
	}

	server.logger.Info("debit settled",
		zap.String("from", source.address),
		zap.String("to", request.To),
		zap.String("amount", request.Amount.String()))
	respondResult(ctx, nexus.DebitResult{TxID: txid})
}

func (server *Server) handleCreditAccount(ctx *gin.Context) {
	var request struct {
		TxID    string `json:"txid"`
		PIN     string `json:"pin"`
		Session string `json:"session"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	session, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	if !session.unlocked || profile.pin != request.PIN {
		respondError(ctx, http.StatusUnauthorized, -139, "Session is locked")
		return
	}
	// Debits settle instantly here, so a credit claim is a no-op acknowledgement.
	respondResult(ctx, nexus.DebitResult{TxID: request.TxID})
}

func (server *Server) handleTransactions(ctx *gin.Context) {
	var request struct {
		Name    string `json:"name"`
		Session string `json:"session"`
		Limit   int    `json:"limit"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		respondError(ctx, http.StatusBadRequest, -32700, "Malformed request")
		return
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	_, profile, err := server.resolveSession(request.Session)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, -11, err.Error())
		return
	}
	transactions := profile.transactions[request.Name]
	if request.Limit > 0 && request.Limit < len(transactions) {
		transactions = transactions[:request.Limit]
	}
	if transactions == nil {
		transactions = []nexus.Transaction{}
	}
	respondResult(ctx, transactions)
}

func (server *Server) handleSystemInfo(ctx *gin.Context) {
	server.mu.Lock()
	defer server.mu.Unlock()
	respondResult(ctx, nexus.SystemInfo{
		Version:     nodeVersion,
		Blocks:      server.now().Unix() / 50,
		Connections: 1,
		Testnet:     true,
	})
}
