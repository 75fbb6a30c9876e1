package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting render %s":              "レンダリング %s を開始します",
		"Render completed in %d ms":       "レンダリングが %d ms で完了しました",
		"Cache hit for key %s":            "キー %s のキャッシュにヒットしました",
		"Taking fast path":                "高速パスを使用します",
		"Taking quality path":             "高品質パスを使用します",
		"Interrupted, shutting down...":   "中断されました。シャットダウン中...",
		"Output saved to %s":              "出力を %s に保存しました",

		// Decode stage
		"Decoding %d frames at %dx%d": "%d フレームを %dx%d でデコード中",
		"Extracted %d of %d frames":   "%d / %d フレームを抽出しました",

		// Decimate stage
		"Dropped %d of %d frames": "%d / %d フレームを間引きました",

		// Process stage
		"Dispatching %d frames to %d workers": "%d フレームを %d ワーカーへ配信中",

		// Encode stage
		"Encoding %d frames to %s": "%d フレームを %s にエンコード中",

		// Codec runtime
		"Codec runtime ready at %s": "コーデックランタイムの準備完了: %s",

		// Worker pool
		"Started %d workers":  "%d ワーカーを起動しました",
		"All workers stopped": "全ワーカーが停止しました",
	})
}
