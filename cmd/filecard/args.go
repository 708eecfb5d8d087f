package main

import (
	"fmt"
	"strings"
)

type renderArgs struct {
	Source string
	Format string
	Props  string
	Dir    string
	Out    string
}

type serveArgs struct {
	renderArgs
	Listen string
}

// takeValue 解析 "--name value" 与 "--name=value" 两种写法。
// 返回 ok=false 表示 args[i] 不是该参数。
func takeValue(args []string, i *int, name string) (string, bool, error) {
	a := args[*i]
	if a == name {
		if *i+1 >= len(args) {
			return "", true, fmt.Errorf("%s 需要一个值", name)
		}
		*i++
		return args[*i], true, nil
	}
	if v, ok := strings.CutPrefix(a, name+"="); ok {
		return v, true, nil
	}
	return "", false, nil
}

// parseCommon 解析 render 与 serve 共用的参数；extra 处理各自独有的参数。
func parseCommon(args []string, ra *renderArgs, extra map[string]*string) error {
	fields := map[string]*string{
		"--source": &ra.Source,
		"--format": &ra.Format,
		"--props":  &ra.Props,
		"--dir":    &ra.Dir,
	}
	for k, v := range extra {
		fields[k] = v
	}

next:
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "-" || !strings.HasPrefix(a, "-") {
			return fmt.Errorf("多余的参数 %q", a)
		}
		for name, dst := range fields {
			v, ok, err := takeValue(args, &i, name)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("%s 不能为空", name)
			}
			*dst = v
			continue next
		}
		return fmt.Errorf("未知参数 %q", a)
	}

	switch strings.ToLower(ra.Source) {
	case "", "props", "dir", "remote", "bucket":
	default:
		return fmt.Errorf("--source 只能是 props、dir、remote 或 bucket，实际是 %q", ra.Source)
	}
	switch strings.ToLower(ra.Format) {
	case "", "html", "text", "json":
	default:
		return fmt.Errorf("--format 只能是 html、text 或 json，实际是 %q", ra.Format)
	}
	if ra.Props != "" && ra.Dir != "" {
		return fmt.Errorf("--props 与 --dir 不能同时使用")
	}
	return nil
}

func parseRenderArgs(args []string) (renderArgs, error) {
	var ra renderArgs
	if err := parseCommon(args, &ra, map[string]*string{"--out": &ra.Out}); err != nil {
		return renderArgs{}, err
	}
	return ra, nil
}

func parseServeArgs(args []string) (serveArgs, error) {
	var sa serveArgs
	if err := parseCommon(args, &sa.renderArgs, map[string]*string{"--listen": &sa.Listen}); err != nil {
		return serveArgs{}, err
	}
	if sa.Props == "-" {
		// serve 的 stdin 不是请求通道；props 请走 POST /card。
		return serveArgs{}, fmt.Errorf("serve 不支持 --props -")
	}
	return sa, nil
}

func parseInspectArgs(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", fmt.Errorf("需要一个 HTML 文件路径（或 - 表示 stdin）")
	case 1:
		if a := args[0]; a != "-" && strings.HasPrefix(a, "-") {
			return "", fmt.Errorf("未知参数 %q", a)
		}
		return args[0], nil
	default:
		return "", fmt.Errorf("只能指定一个文件，实际有 %d 个", len(args))
	}
}
