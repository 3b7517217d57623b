package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// ErrBrowserUnavailable indica que nenhum Chrome/Chromium foi encontrado
var ErrBrowserUnavailable = errors.New("navegador indisponível")

// BrowserPool é dono do navegador compartilhado pelos clientes de páginas
// renderizadas. O navegador só é iniciado na primeira sessão. Cada sessão
// usa um contexto de navegador próprio, sem cookies ou abas em comum com as
// demais, e o número de sessões simultâneas é limitado.
type BrowserPool struct {
	chromeBin string
	sem       chan struct{}

	mu          sync.Mutex
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelBrows context.CancelFunc
	closed      bool
}

// NewBrowserPool cria o pool. chromeBin vazio faz a busca pelo binário no sistema.
func NewBrowserPool(chromeBin string, maxSessions int) *BrowserPool {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	if maxSessions <= 0 {
		maxSessions = 1
	}
	return &BrowserPool{
		chromeBin: chromeBin,
		sem:       make(chan struct{}, maxSessions),
	}
}

// Available informa se há um binário do navegador configurado
func (p *BrowserPool) Available() bool {
	return p != nil && p.chromeBin != ""
}

// Acquire obtém uma sessão isolada. release deve ser chamado em todos os
// caminhos de saída; ele fecha o contexto da sessão e devolve a vaga.
// A sessão é cancelada junto com ctx e herda seu prazo.
func (p *BrowserPool) Acquire(ctx context.Context) (session context.Context, release func(), err error) {
	if !p.Available() {
		return nil, nil, ErrBrowserUnavailable
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	browserCtx, err := p.browser()
	if err != nil {
		<-p.sem
		return nil, nil, err
	}

	id := uuid.NewString()
	session, cancelSession := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())
	cancelDeadline := context.CancelFunc(func() {})
	if deadline, ok := ctx.Deadline(); ok {
		session, cancelDeadline = context.WithDeadline(session, deadline)
	}
	stop := context.AfterFunc(ctx, cancelSession)

	slog.Debug("sessão do navegador aberta", "session", id)

	var once sync.Once
	release = func() {
		once.Do(func() {
			stop()
			cancelDeadline()
			cancelSession()
			<-p.sem
			slog.Debug("sessão do navegador encerrada", "session", id)
		})
	}
	return session, release, nil
}

// browser inicia o navegador compartilhado se ainda não estiver rodando
func (p *BrowserPool) browser() (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errors.New("pool do navegador encerrado")
	}
	if p.browserCtx != nil && p.browserCtx.Err() == nil {
		return p.browserCtx, nil
	}
	// navegador anterior morreu: libera o processo e o alocador antes de subir outro
	p.shutdown()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(randomUserAgent()),
		chromedp.ExecPath(p.chromeBin),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrows := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// o primeiro Run aloca o navegador; o contexto não pode ter prazo
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrows()
		cancelAlloc()
		return nil, fmt.Errorf("erro ao iniciar navegador: %w", err)
	}

	slog.Info("navegador iniciado", "bin", p.chromeBin)
	p.browserCtx = browserCtx
	p.cancelAlloc = cancelAlloc
	p.cancelBrows = cancelBrows
	return browserCtx, nil
}

// Close encerra o navegador. Sessões abertas depois disso falham.
func (p *BrowserPool) Close() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.shutdown()
}

// shutdown exige p.mu travado
func (p *BrowserPool) shutdown() {
	if p.cancelBrows != nil {
		p.cancelBrows()
		p.cancelAlloc()
	}
	p.browserCtx, p.cancelBrows, p.cancelAlloc = nil, nil, nil
}

// findChromeBinary procura o Chrome/Chromium no PATH e em caminhos conhecidos
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, path := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
