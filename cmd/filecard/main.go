package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/John-Robertt/filecard/internal/card"
	"github.com/John-Robertt/filecard/internal/config"
	"github.com/John-Robertt/filecard/internal/domain"
	"github.com/John-Robertt/filecard/internal/infra/fsx"
	"github.com/John-Robertt/filecard/internal/infra/httpx"
	"github.com/John-Robertt/filecard/internal/server"
	"github.com/John-Robertt/filecard/internal/source"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	var code int
	switch args[0] {
	case "render":
		code = renderCmd(args[1:], os.Stdin, os.Stdout, os.Stderr)
	case "inspect":
		code = inspectCmd(args[1:], os.Stdin, os.Stdout, os.Stderr)
	case "serve":
		code = serveCmd(args[1:], os.Stdin, os.Stdout, os.Stderr)
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func renderCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if hasHelp(args) {
		printRenderUsage(stdout)
		return 0
	}

	ra, err := parseRenderArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		printRenderUsage(stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Source:    ra.Source,
		Format:    ra.Format,
		PropsPath: ra.Props,
		Dir:       ra.Dir,
	})
	if err != nil {
		emitConfigError(stderr, err)
		return 1
	}

	src, err := buildSource(eff, cwd, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "初始化来源失败：%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := src.Files(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "读取文件列表失败（source=%s）：%v\n", src.Kind(), err)
		return 1
	}

	var buf bytes.Buffer
	if err := card.Render(&buf, eff.Format, files); err != nil {
		fmt.Fprintf(stderr, "渲染失败：%v\n", err)
		return 1
	}

	if ra.Out == "" {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			fmt.Fprintf(stderr, "写出失败：%v\n", err)
			return 1
		}
		return 0
	}

	out := ra.Out
	if !filepath.IsAbs(out) {
		out = filepath.Join(cwd, out)
	}
	if err := fsx.WriteFileAtomic(filepath.Dir(out), filepath.Base(out), buf.Bytes()); err != nil {
		fmt.Fprintf(stderr, "写入 %s 失败：%v\n", out, err)
		return 1
	}
	fmt.Fprintf(stderr, "完成：%s（%d files）\n", out, files.Count())
	return 0
}

func inspectCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if hasHelp(args) {
		printInspectUsage(stdout)
		return 0
	}

	path, err := parseInspectArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		printInspectUsage(stderr)
		return 2
	}

	var html []byte
	if path == "-" {
		html, err = io.ReadAll(stdin)
	} else {
		html, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(stderr, "读取失败：%v\n", err)
		return 1
	}

	sum, err := card.Inspect(html)
	if err != nil {
		if card.IsNotCard(err) {
			fmt.Fprintf(stderr, "不是文件卡片：%v\n", err)
		} else {
			fmt.Fprintf(stderr, "解析失败：%v\n", err)
		}
		return 1
	}

	emitSummary(stdout, sum)
	if err := sum.Check(); err != nil {
		fmt.Fprintf(stderr, "卡片不一致：%v\n", err)
		return 1
	}
	return 0
}

func serveCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if hasHelp(args) {
		printServeUsage(stdout)
		return 0
	}

	sa, err := parseServeArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		printServeUsage(stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Source:    sa.Source,
		Format:    sa.Format,
		PropsPath: sa.Props,
		Dir:       sa.Dir,
		Listen:    sa.Listen,
	})
	if err != nil {
		emitConfigError(stderr, err)
		return 1
	}

	src, err := buildSource(eff, cwd, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "初始化来源失败：%v\n", err)
		return 1
	}

	logger := server.NewLogger(stderr, eff.LogFormat)
	if eff.ConfigPath != "" {
		logger.WithField("path", eff.ConfigPath).Info("config loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(src, eff.Format, logger).ListenAndServe(ctx, eff.Listen); err != nil {
		logger.WithError(err).Error("server stopped")
		return 1
	}
	return 0
}

// buildSource 按生效配置构造来源。
//
// props 来源在这里一次性读完（stdin 只能读一次）；未给 --props 时视为未提供 files。
func buildSource(eff config.EffectiveConfig, cwd string, stdin io.Reader) (source.Source, error) {
	switch eff.Source {
	case source.KindProps:
		switch p := eff.PropsPath; p {
		case "":
			return source.Static{List: domain.Absent()}, nil
		case "-":
			return source.PropsReader(stdin)
		default:
			if !filepath.IsAbs(p) {
				p = filepath.Join(cwd, p)
			}
			f, err := os.Open(p)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return source.PropsReader(f)
		}
	case source.KindDir:
		return source.Dir{
			Root: eff.Dir,
			Opt: source.DirOptions{
				ExcludeDirs: eff.ExcludeDirs,
				Extensions:  eff.Extensions,
			},
		}, nil
	case source.KindRemote:
		c, err := httpx.NewClient(eff.ProxyURL)
		if err != nil {
			return nil, err
		}
		return source.Remote{BaseURL: eff.RemoteBaseURL, PageSize: eff.RemotePageSize, Client: c}, nil
	case source.KindBucket:
		return source.NewBucket(eff.Bucket)
	default:
		return nil, fmt.Errorf("未知来源：%q", eff.Source)
	}
}

func emitConfigError(w io.Writer, err error) {
	code := config.Code(err)
	if code == "" {
		code = config.ErrCodeInvalid
	}
	fmt.Fprintf(w, "配置错误（%s）：%v\n", code, err)
}

// emitSummary：stdout 是终端时输出可读摘要；否则只输出一个 JSON（便于脚本处理）。
func emitSummary(w io.Writer, sum card.Summary) {
	if f, ok := w.(*os.File); ok && isTTY(f) {
		fmt.Fprintf(w, "%s · %s\n", sum.Title, sum.Badge)
		for i, r := range sum.Rows {
			fmt.Fprintf(w, "  %d. %s\n", i+1, r)
		}
		return
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(sum)
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func hasHelp(args []string) bool {
	for _, a := range args {
		if isHelp(a) {
			return true
		}
	}
	return false
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  filecard render  [--source props|dir|remote|bucket] [--format html|text|json] [--props FILE|-] [--dir PATH] [--out FILE]
  filecard inspect FILE|-
  filecard serve   [--listen ADDR] [--source ...] [--format ...] [--props FILE|-] [--dir PATH]

命令：
  render   渲染一次文件卡片（默认输出到 stdout）
  inspect  读回已渲染的 HTML 卡片并校验计数与行
  serve    以 HTTP 提供卡片（GET/POST /card，GET /healthz）

使用 "filecard <命令> --help" 查看详细说明。
`)
}

func printRenderUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  filecard render [--source props|dir|remote|bucket] [--format html|text|json] [--props FILE|-] [--dir PATH] [--out FILE]

参数：
  --source  文件名来源（未指定时由 --dir/--props 推断，其次读配置文件；最终默认 props）
  --format  输出格式：html|text|json（默认 html）
  --props   props JSON 文件，"-" 表示 stdin；形如 {"files": ["a.txt"]}
  --dir     列出该目录下的文档（隐含 --source dir）
  --out     原子写入到文件，而不是 stdout
  -h, --help  显示帮助
`)
}

func printInspectUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  filecard inspect FILE|-

读取 render --format html 的输出，打印标题、计数与各行；
计数与行不一致时退出码为 1。
`)
}

func printServeUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  filecard serve [--listen ADDR] [--source ...] [--format ...] [--props FILE|-] [--dir PATH]

参数：
  --listen  监听地址（默认 :8080，也可在配置文件中设置 listen）
  其余参数同 render，决定 GET /card 的来源与默认格式
  -h, --help  显示帮助
`)
}
