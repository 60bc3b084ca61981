package ports

// Logger é o logger estruturado usado pelas camadas de domínio e serviço.
// args são pares chave/valor, como em log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With retorna um logger que inclui args em todas as mensagens
	With(args ...any) Logger
}
