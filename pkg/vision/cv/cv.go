// Package cv 提供基于特征点的目标定位功能
//
// 处理流程:
//   - 特征提取: ORB (二进制描述子) 或 SIFT (浮点梯度描述子)
//   - 对应点匹配: ORB 使用交叉校验的暴力匹配，SIFT 使用 L2 距离 k=2 暴力近邻匹配
//     (WithFLANN / WithApproximateMatching 时改用 FLANN 近似搜索，结果不保证可重复)
//   - 匹配过滤: SIFT 距离比率测试 (0.8)，ORB 交叉校验结果直接通过
//   - 位置估计: 场景侧特征点坐标取平均
//
// 基本用法:
//
//	// 在岩壁图像中定位一个岩点
//	pos, err := cv.FindLocation("hold.png", "wall.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if pos == nil {
//	    fmt.Println("没有可信的位置")
//	    return
//	}
//	fmt.Printf("找到位置: (%d, %d)\n", pos.X, pos.Y)
//
//	// 使用 ORB 并输出匹配可视化
//	pos, err := cv.FindLocation("hold.png", "wall.png",
//	    cv.WithStrategy(cv.StrategyBinary),
//	    cv.WithMatchOutput("matches.png"),
//	)
package cv
