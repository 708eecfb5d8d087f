// Package source 提供卡片的宿主侧数据来源：props JSON、本地目录、文档服务分页接口、上传 bucket。
//
// 卡片本身不取数；这里的每个来源都只负责产出一个 domain.FileList。
package source

import (
	"context"
	"fmt"
	"io"

	"github.com/John-Robertt/filecard/internal/domain"
)

const (
	KindProps  = "props"
	KindDir    = "dir"
	KindRemote = "remote"
	KindBucket = "bucket"
)

// Source 是“为卡片提供文件名”的统一接口。
//
// 约束：
// - 成功时返回的 FileList 必须 Present=true（即使为空）；未提供只来自 props
// - 失败时不返回部分结果（宁可不渲染，也不渲染错误的计数）
type Source interface {
	Kind() string
	Files(ctx context.Context) (domain.FileList, error)
}

// Static 把一次性读入的 props 包装成 Source。
type Static struct {
	List domain.FileList
}

func (Static) Kind() string { return KindProps }

func (s Static) Files(ctx context.Context) (domain.FileList, error) {
	return s.List, nil
}

// PropsReader 立即从 r 读取 props（例如 CLI 的 --props -），之后每次 Files 都返回同一结果。
func PropsReader(r io.Reader) (Static, error) {
	l, err := ReadProps(r)
	if err != nil {
		return Static{}, err
	}
	return Static{List: l}, nil
}

// Dir 把 ListDir 包装成 Source。
type Dir struct {
	Root string
	Opt  DirOptions
}

func (Dir) Kind() string { return KindDir }

func (d Dir) Files(ctx context.Context) (domain.FileList, error) {
	if err := ctx.Err(); err != nil {
		return domain.FileList{}, err
	}
	names, err := ListDir(d.Root, d.Opt)
	if err != nil {
		return domain.FileList{}, fmt.Errorf("列出目录失败：%w", err)
	}
	return domain.Of(names...), nil
}

func (Remote) Kind() string { return KindRemote }

func (r Remote) Files(ctx context.Context) (domain.FileList, error) {
	names, err := r.ListRemote(ctx)
	if err != nil {
		return domain.FileList{}, fmt.Errorf("读取文档服务失败：%w", err)
	}
	return domain.Of(names...), nil
}

func (*Bucket) Kind() string { return KindBucket }

func (b *Bucket) Files(ctx context.Context) (domain.FileList, error) {
	names, err := b.ListBucket(ctx)
	if err != nil {
		return domain.FileList{}, fmt.Errorf("列出 bucket 失败：%w", err)
	}
	return domain.Of(names...), nil
}
